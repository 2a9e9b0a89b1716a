// tileproxy is a caching reverse proxy for map tiles, styles and scripts.
//
// It relays GET requests under /proxy/{target}/ to configured upstreams,
// caches static assets for a day, rewrites upstream URLs in JSON bodies and
// redirects so clients keep talking to the proxy, and serves a filtered
// view of a directory API at /lookup.
//
// Usage:
//
//	# Start with built-in defaults
//	tileproxy run
//
//	# Start with a configuration file
//	tileproxy run --config /etc/tileproxy/config.yaml
//
//	# Check a configuration file
//	tileproxy validate --config config.yaml
//
//	# List configured targets
//	tileproxy targets --output json
package main

import "os"

func main() {
	os.Exit(Execute())
}
