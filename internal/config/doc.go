// Package config loads chunkgraph settings with viper.
//
// Values are resolved in increasing precedence from built-in defaults, the
// chunkgraph.yaml file in the project root and CHUNKGRAPH_* environment
// variables:
//
//	# chunkgraph.yaml
//	entries:
//	  - "pages/**/*.{js,jsx,ts,tsx}"
//	output_dir: .chunkgraph
//	server_root: ""
//	precompress: true
//	module_id_strategy: path
//	debounce: 200ms
//
//	CHUNKGRAPH_PRECOMPRESS=false chunkgraph build
package config
