// Package config provides configuration management for csvavg.
//
// A run is described by a single Config structure with sections for the
// input file, the output file, the transform, logging, observability and the
// run report. Values are layered with viper, highest precedence first:
//
//   - command line flags bound with BindFlags
//   - environment variables prefixed with CSVAVG_ (input.path -> CSVAVG_INPUT_PATH)
//   - the configuration file (YAML or JSON)
//   - Default()
//
// # Environment Variable Substitution
//
// Configuration files may reference environment variables with ${VAR_NAME}:
//
//	# csvavg.yaml
//	input:
//	  path: ${DATA_DIR}/scores.csv
//	transform:
//	  column: score
//
// # Usage
//
//	v := viper.New()
//	config.BindFlags(v, cmd.Flags())
//	cfg, err := config.Load(v, "csvavg.yaml")
//	if err != nil {
//		return err
//	}
package config
