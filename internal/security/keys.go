package security

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"sonerezh/internal/fsutil"
	"sonerezh/internal/logging"

	"github.com/BurntSushi/toml"
)

// Keys is the pair of secrets stored in the [security] table.
type Keys struct {
	CipherSeed string `toml:"cipher_seed"`
	Salt       string `toml:"salt"`
}

// Empty reports whether neither secret has been set yet.
func (k Keys) Empty() bool {
	return k.CipherSeed == "" && k.Salt == ""
}

// GenerateKeys returns a fresh cipher seed and salt.
func GenerateKeys() Keys {
	return Keys{CipherSeed: GenerateCipherSeed(), Salt: GenerateSalt()}
}

// KeyRewriter replaces the secrets inside the application configuration file.
type KeyRewriter struct {
	path     string
	generate func() Keys
}

// NewKeyRewriter creates a rewriter for the configuration file at path.
func NewKeyRewriter(path string) *KeyRewriter {
	return &KeyRewriter{path: path, generate: GenerateKeys}
}

// Path returns the configuration file the rewriter works on.
func (k *KeyRewriter) Path() string {
	return k.path
}

// Current reads the secrets currently stored in the file.
func (k *KeyRewriter) Current() (Keys, error) {
	content, err := os.ReadFile(k.path)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to read security keys from %s: %w", k.path, err)
	}
	keys, err := decodeKeys(string(content))
	if err != nil {
		return Keys{}, fmt.Errorf("failed to read security keys from %s: %w", k.path, err)
	}
	return keys, nil
}

func decodeKeys(content string) (Keys, error) {
	var file struct {
		Security Keys `toml:"security"`
	}
	if _, err := toml.Decode(content, &file); err != nil {
		return Keys{}, err
	}
	return file.Security, nil
}

// Rotate generates a new pair and writes it over the previous one.
//
// Existing values are replaced textually so the rest of the file, comments
// included, is left untouched. A file without previous values gets the
// [security] table through the TOML encoder instead.
func (k *KeyRewriter) Rotate() (Keys, error) {
	info, err := os.Stat(k.path)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to stat %s: %w", k.path, err)
	}
	content, err := os.ReadFile(k.path)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to read %s: %w", k.path, err)
	}
	previous, err := k.Current()
	if err != nil {
		return Keys{}, err
	}

	next := k.generate()
	updated, ok := replaceKeys(string(content), previous, next)
	if ok {
		// The old values may also sit outside [security], e.g. in a comment.
		if stored, err := decodeKeys(updated); err != nil || stored != next {
			ok = false
		}
	}
	if !ok {
		logging.Log.Debugf("KeyRewriter: previous keys not replaceable in place in %s, re-encoding the file", k.path)
		updated, err = encodeKeys(content, next)
		if err != nil {
			return Keys{}, err
		}
	}

	if err := fsutil.WriteFileAtomic(k.path, []byte(updated), info.Mode().Perm()); err != nil {
		return Keys{}, fmt.Errorf("failed to write %s: %w", k.path, err)
	}
	return next, nil
}

// replaceKeys swaps every quoted occurrence of the previous values for the new ones.
func replaceKeys(content string, previous, next Keys) (string, bool) {
	if previous.CipherSeed == "" || previous.Salt == "" {
		return "", false
	}
	out := content
	for _, pair := range [][2]string{
		{previous.CipherSeed, next.CipherSeed},
		{previous.Salt, next.Salt},
	} {
		replaced := false
		for _, quote := range []string{`"`, `'`} {
			old := quote + pair[0] + quote
			if strings.Contains(out, old) {
				out = strings.ReplaceAll(out, old, quote+pair[1]+quote)
				replaced = true
				break
			}
		}
		if !replaced {
			return "", false
		}
	}
	return out, true
}

// encodeKeys decodes the whole document, sets the security table and encodes it again.
func encodeKeys(content []byte, next Keys) (string, error) {
	doc := map[string]interface{}{}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return "", fmt.Errorf("failed to parse config: %w", err)
	}
	section, _ := doc["security"].(map[string]interface{})
	if section == nil {
		section = map[string]interface{}{}
	}
	section["cipher_seed"] = next.CipherSeed
	section["salt"] = next.Salt
	doc["security"] = section

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}
