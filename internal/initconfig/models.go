// filepath: internal/initconfig/models.go
package initconfig

import "sonerezh/internal/models"

// AnswerFile is the root struct for parsing the TOML answer file of an
// unattended installation.
type AnswerFile struct {
	Database AnswerDatabase `toml:"database"`
	Admin    AnswerAdmin    `toml:"admin"`
	Setting  AnswerSetting  `toml:"setting"`
}

// AnswerDatabase represents the [database] table of the answer file.
type AnswerDatabase struct {
	Datasource string `toml:"datasource"`
	Host       string `toml:"host"`
	Login      string `toml:"login"`
	Password   string `toml:"password"`
	Database   string `toml:"database"`
}

// AnswerAdmin represents the [admin] table of the answer file.
type AnswerAdmin struct {
	Username string `toml:"username"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// AnswerSetting represents the optional [setting] table of the answer file.
type AnswerSetting struct {
	ConvertFrom string `toml:"convert_from"`
	ConvertTo   string `toml:"convert_to"`
	Quality     int    `toml:"quality"`
}

// Request maps the answers onto an installer submission. The answer file has
// no confirmation field, so the password confirms itself.
func (a AnswerFile) Request() models.InstallRequest {
	return models.InstallRequest{
		DB: models.InstallDatabase{
			Datasource: models.Datasource(a.Database.Datasource),
			Host:       a.Database.Host,
			Login:      a.Database.Login,
			Password:   a.Database.Password,
			Database:   a.Database.Database,
		},
		User: models.InstallUser{
			Username:        a.Admin.Username,
			Email:           a.Admin.Email,
			Password:        a.Admin.Password,
			ConfirmPassword: a.Admin.Password,
		},
		Setting: models.InstallSetting{
			ConvertFrom: a.Setting.ConvertFrom,
			ConvertTo:   a.Setting.ConvertTo,
			Quality:     a.Setting.Quality,
		},
	}
}
