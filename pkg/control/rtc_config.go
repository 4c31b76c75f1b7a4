package control

import (
	"os"

	"github.com/pion/webrtc/v4"
)

// ConfigurationFromEnv builds a webrtc.Configuration from the standard
// STUN_SERVER_URL/TURN_*_SERVER_URL environment variables, falling back
// to a STUN-only configuration when no TURN credentials are set.
func ConfigurationFromEnv() webrtc.Configuration {
	servers := []webrtc.ICEServer{{URLs: []string{os.Getenv("STUN_SERVER_URL")}}}

	username := os.Getenv("TURN_SERVER_USERNAME")
	password := os.Getenv("TURN_SERVER_PASSWORD")
	if username == "" || password == "" {
		return webrtc.Configuration{ICEServers: servers}
	}

	for _, env := range []string{"TURN_UDP_SERVER_URL", "TURN_TCP_SERVER_URL", "TURN_TLS_SERVER_URL"} {
		url := os.Getenv(env)
		if url == "" {
			continue
		}
		servers = append(servers, webrtc.ICEServer{
			URLs:           []string{url},
			Username:       username,
			Credential:     password,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}

	return webrtc.Configuration{ICEServers: servers}
}
