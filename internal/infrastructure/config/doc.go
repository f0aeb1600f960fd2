// Package config loads the controller's YAML configuration.
//
// Values come from three layers, later ones winning: built-in defaults,
// the YAML file named by RELAYCYCLE_CONFIG (configs/config.yaml when
// unset), and RELAYCYCLE_* environment variables. Secrets such as the MQTT
// password, InfluxDB token and JWT secret are best supplied through the
// environment. An empty security.jwt.secret turns API authentication off.
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	poll := cfg.SuspendPollInterval()
package config
