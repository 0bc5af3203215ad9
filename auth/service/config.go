package service

import "time"

type Config struct {
	Secret         string        `toml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `toml:"jwt_expires_in" env:"JWT_EXPIRES_IN"`
	PasswordPepper string        `toml:"password_pepper" env:"PASSWORD_PEPPER"`
	HashCost       int           `toml:"bcrypt_cost" env:"BCRYPT_COST"`
	RootName       string        `toml:"root_name" env:"ROOT_NAME"`
	RootEmail      string        `toml:"root_email" env:"ROOT_EMAIL"`
	RootPassword   string        `toml:"root_password" env:"ROOT_PASSWORD"`
}
