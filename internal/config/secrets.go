package config

// RedactedConfig returns a copy of cfg with secrets replaced by "***". Use it
// whenever the active configuration is logged.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// RPC URLs commonly embed provider API keys.
	if cfg.Networks != nil {
		out.Networks = make(map[string]NetworkConfig, len(cfg.Networks))
		for k, v := range cfg.Networks {
			redact(&v.RPCURL)
			out.Networks[k] = v
		}
	}

	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	}
	if cfg.Bonds != nil {
		out.Bonds = append([]BondConfig(nil), cfg.Bonds...)
	}

	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
