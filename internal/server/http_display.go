package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayWatcherInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                   - Health check")
	fmt.Println("  GET    /stats                                    - Server statistics")
	fmt.Println("  POST   /generate                                 - Generate analysis and open a workspace")
	fmt.Println("  POST   /extract/image                            - Extract job description from a screenshot")
	fmt.Println("  POST   /profile/parse                            - Parse a profile from text or PDF")
	fmt.Println("  GET    /workspaces                               - List workspaces")
	fmt.Println("  POST   /workspaces                               - Import an analysis result")
	fmt.Println("  GET    /workspaces/{id}                          - Current result")
	fmt.Println("  DELETE /workspaces/{id}                          - Drop a workspace")
	fmt.Println("  POST   /workspaces/{id}/rescore                  - Rescore the current document")
	fmt.Println("  POST   /workspaces/{id}/keywords                 - Integrate a keyword gap")
	fmt.Println("  POST   /workspaces/{id}/job-title                - Apply the suggested job title")
	fmt.Println("  GET    /workspaces/{id}/render                   - Render HTML")
	fmt.Println("  GET    /workspaces/{id}/export                   - Export json, yaml, text, markdown or pdf")
	fmt.Println("  GET    /workspaces/{id}/surfaces/{surface}       - Surface working copy")
	fmt.Println("  PATCH  /workspaces/{id}/surfaces/{surface}/fields - Change one field")
	fmt.Println("  POST   /workspaces/{id}/surfaces/{surface}/commit - Commit and rescore")
	fmt.Println("  POST   /accounts/signup | /accounts/login | /accounts/verify")
	fmt.Println("  GET    /accounts/{email}                         - Account with profile and templates")
	if s.APIKeys.Len() > 0 {
		fmt.Println("All endpoints except /health and /stats require an API key")
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' or 'Authorization: Bearer <your-key>' in requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}

// displayWatcherInfo shows which background reloaders are running
func (s *Server) displayWatcherInfo() {
	if s.promptWatcher != nil && s.promptWatcher.IsRunning() {
		fmt.Println("Prompt hot reload: ENABLED")
	}
	if s.keyWatcher != nil {
		fmt.Printf("API key reload from Vault: ENABLED (every %s)\n", s.keyWatcher.pollInterval)
	}
	if s.AppConfig != nil && s.AppConfig.Server.WorkspaceIdleTimeout > 0 {
		fmt.Printf("Idle workspaces dropped after %s\n", s.AppConfig.Server.WorkspaceIdleTimeout)
	}
}
