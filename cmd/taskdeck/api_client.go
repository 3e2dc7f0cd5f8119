package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// apiClient is the shared HTTP client with timeout.
var apiClient = &http.Client{
	Timeout: DefaultClientTimeout,
}

// apiGet performs a GET request to the API with timeout.
func apiGet(path string) ([]byte, error) {
	resp, err := apiClient.Get(apiAddr + path)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// apiSend performs a request with a JSON body. data may be nil.
func apiSend(method, path string, data interface{}) ([]byte, error) {
	var reader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonData)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequest(method, apiAddr+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := apiClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func apiPost(path string, data interface{}) ([]byte, error)  { return apiSend(http.MethodPost, path, data) }
func apiPut(path string, data interface{}) ([]byte, error)   { return apiSend(http.MethodPut, path, data) }
func apiPatch(path string, data interface{}) ([]byte, error) { return apiSend(http.MethodPatch, path, data) }
func apiDelete(path string) ([]byte, error)                  { return apiSend(http.MethodDelete, path, nil) }

// CheckHealth checks if the server is healthy and returns the health response.
// Unlike other API calls, this returns the parsed HealthResponse even on non-200
// responses, allowing callers to inspect the health payload alongside the error.
func CheckHealth() (*HealthResponse, error) {
	resp, err := apiClient.Get(apiAddr + "/api/health")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, string(body))
	}

	return &health, nil
}

// HealthResponse matches the server's health response structure.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
