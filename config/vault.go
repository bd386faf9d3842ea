package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultRefPrefix marks an auth value to be read from Vault: vault:<path>#<field>.
const VaultRefPrefix = "vault:"

// VaultResolver replaces vault references in credentials with the secrets they name.
type VaultResolver struct {
	client *api.Client
	log    *slog.Logger
}

// NewVaultResolver creates a resolver talking to the Vault server at address.
// An empty token leaves the client's environment derived token in place.
func NewVaultResolver(address, token string, log *slog.Logger) (*VaultResolver, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}
	cfg.Timeout = 30 * time.Second

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}
	if log == nil {
		log = slog.Default()
	}

	return &VaultResolver{
		client: client,
		log:    log,
	}, nil
}

// ResolveAuth returns a copy of auth with every vault reference replaced by its secret.
// KV v2 (data.data) and KV v1 (data) responses are both accepted.
func (r *VaultResolver) ResolveAuth(ctx context.Context, auth map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(auth))
	secrets := map[string]map[string]any{}

	for key, value := range auth {
		if !strings.HasPrefix(value, VaultRefPrefix) {
			resolved[key] = value
			continue
		}

		secretPath, field, err := parseVaultRef(value)
		if err != nil {
			return nil, fmt.Errorf("auth.%s: %w", key, err)
		}

		data, ok := secrets[secretPath]
		if !ok {
			data, err = r.read(ctx, secretPath)
			if err != nil {
				return nil, fmt.Errorf("auth.%s: %w", key, err)
			}
			secrets[secretPath] = data
		}

		v, ok := data[field].(string)
		if !ok {
			return nil, fmt.Errorf("auth.%s: field %q not found in %s", key, field, secretPath)
		}
		resolved[key] = v
	}

	return resolved, nil
}

func (r *VaultResolver) read(ctx context.Context, secretPath string) (map[string]any, error) {
	start := time.Now()
	secret, err := r.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		r.log.Error("Failed to read from Vault",
			slog.String("path", secretPath),
			"err", err)
		return nil, fmt.Errorf("failed to read %s from Vault: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %s not found in Vault", secretPath)
	}

	r.log.Debug("Read credentials from Vault",
		slog.String("path", secretPath),
		slog.Duration("duration", time.Since(start)))

	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		return nested, nil
	}
	return secret.Data, nil
}

func parseVaultRef(ref string) (string, string, error) {
	secretPath, field, ok := strings.Cut(strings.TrimPrefix(ref, VaultRefPrefix), "#")
	secretPath = strings.Trim(secretPath, "/")
	if !ok || secretPath == "" || field == "" {
		return "", "", fmt.Errorf("invalid vault reference %q, expected vault:<path>#<field>", ref)
	}
	return secretPath, field, nil
}
