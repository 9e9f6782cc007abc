package bedrock

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

const (
	// AWS Signature V4 constants
	algorithm       = "AWS4-HMAC-SHA256"
	requestType     = "aws4_request"
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"

	// Headers
	authorizationHeader = "Authorization"
	dateHeader          = "X-Amz-Date"
	securityTokenHeader = "X-Amz-Security-Token" //nolint:gosec // G101: AWS header name, not a credential
	contentSha256Header = "X-Amz-Content-Sha256"
)

// SigningErrorCode categorizes signing failures
type SigningErrorCode string

const (
	SignCodeInvalidURL  SigningErrorCode = "invalid_url"
	SignCodeMissingHost SigningErrorCode = "missing_host"
	SignCodeFailed      SigningErrorCode = "signing_failed"
)

// SigningError represents a SigV4 signing failure. Signing errors are
// always fatal to the call that requested the signature.
type SigningError struct {
	Code    SigningErrorCode
	Message string
}

// Error implements the error interface
func (e *SigningError) Error() string {
	return fmt.Sprintf("%s (code=%s)", e.Message, e.Code)
}

// Signer implements AWS Signature V4 request signing
type Signer struct{}

// NewSigner creates a new AWS Signature V4 signer
func NewSigner() *Signer {
	return &Signer{}
}

// SignRequest returns a signed copy of the request using AWS Signature V4.
// The input request is left untouched.
func (s *Signer) SignRequest(req *http.Request, creds types.AWSCredentials, region, service string) (*http.Request, error) {
	return s.SignRequestWithTime(req, creds, region, service, time.Now().UTC())
}

// SignRequestWithTime signs a request with a specific timestamp (useful for testing)
func (s *Signer) SignRequestWithTime(req *http.Request, creds types.AWSCredentials, region, service string, t time.Time) (*http.Request, error) {
	if req.URL == nil {
		return nil, &SigningError{Code: SignCodeInvalidURL, Message: "request has no URL"}
	}
	if req.URL.Host == "" && req.Host == "" {
		return nil, &SigningError{Code: SignCodeMissingHost, Message: "request has no host"}
	}

	signed := req.Clone(req.Context())

	// Read and buffer the request body, restoring an equivalent reader on
	// the original so it stays usable
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, &SigningError{Code: SignCodeFailed, Message: fmt.Sprintf("failed to read request body: %v", err)}
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		signed.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	// Calculate payload hash
	payloadHash := hashPayload(bodyBytes)

	// Set required headers
	amzDate := t.Format(timeFormat)
	signed.Header.Set(dateHeader, amzDate)
	signed.Header.Set(contentSha256Header, payloadHash)

	// Add security token if present (for temporary credentials)
	if creds.SessionToken != "" {
		signed.Header.Set(securityTokenHeader, creds.SessionToken)
	}

	// Ensure Host header is set
	if signed.Host == "" {
		signed.Host = signed.URL.Host
	}

	// Create canonical request
	canonicalRequest := buildCanonicalRequest(signed, payloadHash)

	// Create string to sign
	credentialScope := buildCredentialScope(t, region, service)
	stringToSign := buildStringToSign(canonicalRequest, amzDate, credentialScope)

	// Calculate signature
	signature := calculateSignature(stringToSign, creds.SecretAccessKey, t, region, service)

	// Build authorization header
	_, signedHeaders := buildCanonicalHeaders(signed)
	signed.Header.Set(authorizationHeader, fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm,
		creds.AccessKeyID,
		credentialScope,
		signedHeaders,
		signature,
	))

	return signed, nil
}

// hashPayload calculates SHA256 hash of the request payload
func hashPayload(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

// buildCanonicalRequest creates the canonical request string
func buildCanonicalRequest(req *http.Request, payloadHash string) string {
	uri := req.URL.Path
	if uri == "" {
		uri = "/"
	}
	uri = uriEncode(uri, false)

	queryString := buildCanonicalQueryString(req.URL.Query())
	canonicalHeaders, signedHeaders := buildCanonicalHeaders(req)

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		req.Method,
		uri,
		queryString,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	)
}

// buildCanonicalQueryString creates the canonical query string
func buildCanonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		encodedKey := uriEncode(k, true)
		vals := append([]string{}, values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, fmt.Sprintf("%s=%s", encodedKey, uriEncode(v, true)))
		}
	}

	return strings.Join(parts, "&")
}

// isSignableHeader reports whether a lower-cased header participates in
// the signature. Everything outside this set is ignored so that
// transport-added headers cannot perturb the signature.
func isSignableHeader(name string) bool {
	if name == "host" || name == "content-type" {
		return true
	}
	return strings.HasPrefix(name, "x-amz-")
}

// buildCanonicalHeaders creates canonical headers and the signed headers list
func buildCanonicalHeaders(req *http.Request) (canonical, signed string) {
	headers := make(map[string][]string)
	for k, v := range req.Header {
		lowerKey := strings.ToLower(k)
		if isSignableHeader(lowerKey) {
			headers[lowerKey] = v
		}
	}

	// Always include host
	headers["host"] = []string{req.Host}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonicalParts []string
	for _, k := range keys {
		// Collapse internal whitespace runs to single spaces, join
		// multiple values with commas
		var cleanValues []string
		for _, v := range headers[k] {
			cleanValues = append(cleanValues, strings.Join(strings.Fields(v), " "))
		}
		canonicalParts = append(canonicalParts, fmt.Sprintf("%s:%s", k, strings.Join(cleanValues, ",")))
	}

	canonical = strings.Join(canonicalParts, "\n") + "\n"
	signed = strings.Join(keys, ";")

	return canonical, signed
}

// buildCredentialScope creates the credential scope string
func buildCredentialScope(t time.Time, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		t.Format(shortTimeFormat),
		region,
		service,
		requestType,
	)
}

// buildStringToSign creates the string to sign
func buildStringToSign(canonicalRequest, amzDate, credentialScope string) string {
	hash := sha256.Sum256([]byte(canonicalRequest))

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		algorithm,
		amzDate,
		credentialScope,
		hex.EncodeToString(hash[:]),
	)
}

// calculateSignature computes the AWS Signature V4 signature via the
// date/region/service-scoped key chain
func calculateSignature(stringToSign, secretAccessKey string, t time.Time, region, service string) string {
	kSecret := []byte("AWS4" + secretAccessKey)
	kDate := hmacSHA256(kSecret, []byte(t.Format(shortTimeFormat)))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte(requestType))

	signature := hmacSHA256(kSigning, []byte(stringToSign))
	return hex.EncodeToString(signature)
}

// hmacSHA256 computes HMAC-SHA256
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// uriEncode encodes a URI component according to AWS requirements
func uriEncode(s string, encodeSlash bool) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, encodeSlash) {
			fmt.Fprintf(&buf, "%%%02X", c)
		} else {
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// shouldEscape determines if a character should be percent-encoded
func shouldEscape(c byte, encodeSlash bool) bool {
	// Unreserved characters (RFC 3986)
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~':
		return false
	case '/':
		return encodeSlash
	}
	return true
}
