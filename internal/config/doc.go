// Package config provides configuration parsing for sizewatch servers.
//
// The configuration is stored in sizewatch.yaml (or sizewatch.yml, or
// sizewatch.json) in the working directory. Durations are written as Go
// duration strings.
//
// # Configuration File Structure
//
//	server:
//	  address: ":7070"
//	  shutdownTimeout: 10s
//	  allowedOrigins: ["https://app.example.com"]
//	session:
//	  readTimeout: 60s
//	  heartbeatInterval: 30s
//	  maxNodes: 10000
//	detector:
//	  callOnAdd: false
//	log:
//	  level: debug
//	  format: json
//	metrics:
//	  enabled: true
//	  namespace: sizewatch
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Server.Address)
package config
