package repository

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"sonerezh/internal/config"
	"sonerezh/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	defaultMySQLPort    = "3306"
	defaultPostgresPort = "5432"
)

// openDB builds a driver specific handle without connecting yet.
func openDB(cfg config.DatabaseConfig, timeout time.Duration) (*sql.DB, error) {
	switch cfg.Datasource {
	case models.DatasourceMySQL:
		connector, err := mysql.NewConnector(mysqlConfig(cfg, timeout))
		if err != nil {
			return nil, fmt.Errorf("invalid mysql configuration: %w", err)
		}
		return sql.OpenDB(connector), nil

	case models.DatasourcePostgres:
		connector, err := pq.NewConnector(postgresDSN(cfg, timeout))
		if err != nil {
			return nil, fmt.Errorf("invalid postgres configuration: %w", err)
		}
		return sql.OpenDB(connector), nil

	case models.DatasourceSQLite:
		if cfg.Database == "" {
			return nil, fmt.Errorf("sqlite requires a database file path")
		}
		return sql.Open(models.DatasourceSQLite.Driver(), cfg.Database)
	}
	return nil, fmt.Errorf("unsupported datasource: %q", cfg.Datasource)
}

// mysqlConfig maps the installer parameters onto the driver config.
// A host starting with "/" is a unix socket.
func mysqlConfig(cfg config.DatabaseConfig, timeout time.Duration) *mysql.Config {
	c := mysql.NewConfig()
	c.User = cfg.Login
	c.Passwd = cfg.Password
	c.DBName = cfg.Database
	c.Timeout = timeout
	c.ParseTime = true

	if strings.HasPrefix(cfg.Host, "/") {
		c.Net = "unix"
		c.Addr = cfg.Host
	} else {
		c.Net = "tcp"
		c.Addr = withDefaultPort(cfg.Host, defaultMySQLPort)
	}
	if cfg.Encoding != "" {
		c.Params = map[string]string{"charset": cfg.Encoding}
	}
	return c
}

// postgresDSN builds a key/value connection string for lib/pq.
func postgresDSN(cfg config.DatabaseConfig, timeout time.Duration) string {
	host, port := splitHostPort(cfg.Host, defaultPostgresPort)

	params := [][2]string{
		{"host", host},
		{"port", port},
		{"user", cfg.Login},
		{"password", cfg.Password},
		{"dbname", cfg.Database},
		{"sslmode", "disable"},
	}
	if cfg.Encoding != "" {
		params = append(params, [2]string{"client_encoding", strings.ToUpper(cfg.Encoding)})
	}
	if timeout > 0 {
		secs := int(timeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		params = append(params, [2]string{"connect_timeout", strconv.Itoa(secs)})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+quoteDSNValue(p[1]))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue quotes a libpq connection string value when needed.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func withDefaultPort(host, port string) string {
	h, p := splitHostPort(host, port)
	return net.JoinHostPort(h, p)
}

func splitHostPort(hostport, defaultPort string) (string, string) {
	if hostport == "" {
		return "localhost", defaultPort
	}
	if host, port, err := net.SplitHostPort(hostport); err == nil {
		return host, port
	}
	return strings.Trim(hostport, "[]"), defaultPort
}
