package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// PinataUploader sube archivos al servicio de pinning de Pinata y construye
// la URL pública sobre el gateway IPFS configurado.
type PinataUploader struct {
	apiURL     string
	jwt        string
	gatewayURL string
	client     *http.Client
}

func NewPinataUploader(jwt, gatewayURL string) (*PinataUploader, error) {
	if strings.TrimSpace(jwt) == "" {
		return nil, fmt.Errorf("pinata jwt is required")
	}
	if strings.TrimSpace(gatewayURL) == "" {
		return nil, fmt.Errorf("pinata gateway url is required")
	}
	return &PinataUploader{
		apiURL:     "https://api.pinata.cloud",
		jwt:        jwt,
		gatewayURL: strings.TrimSuffix(gatewayURL, "/"),
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (u *PinataUploader) Upload(ctx context.Context, fileName string, content io.Reader, _ int64) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.apiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.jwt)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("pinata http error: status=%d", resp.StatusCode)
	}

	var pr pinResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if pr.IpfsHash == "" {
		return "", fmt.Errorf("pinata empty ipfs hash")
	}

	return fmt.Sprintf("https://%s/ipfs/%s", u.gatewayURL, pr.IpfsHash), nil
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}
