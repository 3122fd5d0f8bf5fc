package config

import "errors"

func ValidateForRun(cfg *Config) error {
	var errs []error

	if err := cfg.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Storage.Backend == StorageBackendRedis {
		if err := cfg.Redis.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cfg.TaskQueue.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
