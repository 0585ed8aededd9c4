// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (WithFlags)
//  2. Environment variables (SECURESTORE_ prefix)
//  3. A YAML configuration file
//  4. Defaults already present in the target struct
//
// Environment variable names map to keys by dropping the prefix,
// lowercasing, and turning "__" into the section separator, so single
// underscores survive inside key names:
//
//	SECURESTORE_STORE__DATA_DIR -> store.data_dir
package confloader
