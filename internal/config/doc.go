// Package config loads foodpulse settings.
//
// Values are resolved in three layers, later layers winning:
//
//  1. Default()
//  2. a YAML file (the path passed to Load, or $FOODPULSE_CONFIG)
//  3. FOODPULSE_* environment variables, named after the YAML keys,
//     e.g. FOODPULSE_PIPELINE_REPORT_DIR or FOODPULSE_SINKS_KAFKA_BROKERS
//
// The merged result is validated with struct tags; failures are CONFIG
// errors that name every offending key.
package config
