package awscreds

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// exportCredentials runs the external credential-export command for the
// profile under a hard wall-clock deadline. A process still running at
// the deadline is killed, not abandoned.
func (r *Resolver) exportCredentials(ctx context.Context, profile string) (types.AWSCredentials, error) {
	argv := append([]string{}, r.exportCommand...)
	argv = append(argv, "--profile", profile, "--format", "env")

	cmd := exec.Command(argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return types.AWSCredentials{}, NewParseError(fmt.Sprintf("cannot start credential export: %v", err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(r.exportTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return types.AWSCredentials{}, r.mapExportFailure(profile, stderr.String(), err)
		}
	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done
		r.logger.Printf("[awscreds] credential export for profile %s killed after %s", profile, r.exportTimeout)
		return types.AWSCredentials{}, NewExportTimeoutError(profile, r.exportTimeout)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return types.AWSCredentials{}, NewParseError(fmt.Sprintf("credential export cancelled: %v", ctx.Err()))
	}

	creds := parseExportOutput(stdout.String())
	if !creds.HasKeyPair() {
		return types.AWSCredentials{}, NewParseError("credential export produced no credentials")
	}
	r.logger.Printf("[awscreds] credential export for profile %s succeeded in %s", profile, time.Since(start).Round(time.Millisecond))
	return creds, nil
}

// mapExportFailure turns the export tool's stderr into an actionable error
func (r *Resolver) mapExportFailure(profile, stderr string, err error) *CredError {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "expired"):
		return NewInvalidCredentialsError(profile,
			fmt.Sprintf("SSO session has expired; run \"aws sso login --profile %s\" to refresh it", profile))
	case strings.Contains(lower, "sso"):
		return NewInvalidCredentialsError(profile,
			fmt.Sprintf("profile requires SSO login; run \"aws sso login --profile %s\" first", profile))
	}
	if line := firstLine(stderr); line != "" {
		return NewParseError(line)
	}
	return NewParseError(fmt.Sprintf("credential export failed: %v", err))
}

// parseExportOutput extracts credentials from "export KEY=VALUE" lines
func parseExportOutput(out string) types.AWSCredentials {
	var creds types.AWSCredentials
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "export ") {
			continue
		}
		kv := strings.TrimPrefix(line, "export ")
		idx := strings.Index(kv, "=")
		if idx < 0 {
			continue
		}
		value := strings.Trim(strings.TrimSpace(kv[idx+1:]), `"'`)
		switch strings.TrimSpace(kv[:idx]) {
		case "AWS_ACCESS_KEY_ID":
			creds.AccessKeyID = value
		case "AWS_SECRET_ACCESS_KEY":
			creds.SecretAccessKey = value
		case "AWS_SESSION_TOKEN":
			creds.SessionToken = value
		}
	}
	return creds
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
