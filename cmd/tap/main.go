package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
)

func makeRequest(httpClient *http.Client, method string, url string) ([]byte, int, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("Constructing request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("Making request: %w", err)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("ReadAll: %w", err)
	}

	return data, resp.StatusCode, nil
}

func main() {
	baseURL := os.Getenv("MILEPOST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if len(os.Args) < 2 {
		log.Fatal("No player uuid provided")
	}

	uuid := os.Args[1]
	if uuid == "" {
		log.Fatal("No player uuid provided")
	}

	taps := 1
	if len(os.Args) >= 3 {
		var err error
		taps, err = strconv.Atoi(os.Args[2])
		if err != nil || taps < 1 {
			log.Fatalf("Invalid tap count: %s", os.Args[2])
		}
	}

	httpClient := &http.Client{}

	for i := 0; i < taps; i++ {
		data, statusCode, err := makeRequest(httpClient, "POST", fmt.Sprintf("%s/v1/counters/%s/taps", baseURL, uuid))
		if err != nil {
			log.Fatalf("Failed registering tap: %v", err)
		}
		if statusCode != 200 {
			log.Fatalf("Tap request returned non-200 status code: %d - %s", statusCode, string(data))
		}
		fmt.Println(string(data))
	}

	data, statusCode, err := makeRequest(httpClient, "GET", fmt.Sprintf("%s/v1/counters/%s", baseURL, uuid))
	if err != nil {
		log.Fatalf("Failed getting counter: %v", err)
	}

	fmt.Println(string(data))
	fmt.Println(statusCode)
}
