package models

// CommandsConfig holds the command permission configuration.
type CommandsConfig struct {
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig lists who may use privileged commands.
type AuthConfig struct {
	Developers  []string `json:"developers" mapstructure:"developers"`
	AdminsRoles []string `json:"admins_roles" mapstructure:"admins_roles"`
	Guest       []string `json:"guest" mapstructure:"guest"`
}
