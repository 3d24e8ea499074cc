package storage

import (
	"encoding/csv"
	"os"
	"strings"
)

// Credentials is a resolved AWS access key pair.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Source          string
}

// CredentialsProvider yields credentials or declines. Providers are consulted
// in order; the first to yield wins.
type CredentialsProvider interface {
	Retrieve() (Credentials, bool)
}

// EnvProvider yields credentials passed in from configuration (environment).
type EnvProvider struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Retrieve implements CredentialsProvider.
func (p EnvProvider) Retrieve() (Credentials, bool) {
	if p.AccessKeyID == "" || p.SecretAccessKey == "" {
		return Credentials{}, false
	}
	return Credentials{AccessKeyID: p.AccessKeyID, SecretAccessKey: p.SecretAccessKey, Source: "env"}, true
}

// CSVFileProvider reads an AWS console key export ("Access key ID" and
// "Secret access key" columns). A UTF-8 BOM on the first header is tolerated.
type CSVFileProvider struct {
	Path string
}

// Retrieve implements CredentialsProvider.
func (p CSVFileProvider) Retrieve() (Credentials, bool) {
	if p.Path == "" {
		return Credentials{}, false
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return Credentials{}, false
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return Credentials{}, false
	}

	header := records[0]
	accessIdx, secretIdx := -1, -1
	for i, col := range header {
		switch strings.TrimPrefix(strings.TrimSpace(col), "\ufeff") {
		case "Access key ID":
			accessIdx = i
		case "Secret access key":
			secretIdx = i
		}
	}
	if accessIdx < 0 || secretIdx < 0 {
		return Credentials{}, false
	}

	row := records[1]
	if accessIdx >= len(row) || secretIdx >= len(row) {
		return Credentials{}, false
	}
	accessKey := strings.TrimSpace(row[accessIdx])
	secretKey := strings.TrimSpace(row[secretIdx])
	if accessKey == "" || secretKey == "" {
		return Credentials{}, false
	}
	return Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey, Source: "csv:" + p.Path}, true
}

// ResolveCredentials walks the providers in order and returns the first yield.
func ResolveCredentials(providers ...CredentialsProvider) (Credentials, bool) {
	for _, p := range providers {
		if creds, ok := p.Retrieve(); ok {
			return creds, true
		}
	}
	return Credentials{}, false
}
