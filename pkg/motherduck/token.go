package motherduck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrNoToken is returned by a TokenSource that has nothing to offer.
var ErrNoToken = errors.New("no motherduck token available")

// TokenSource yields a MotherDuck access token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token configured inline.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// EnvToken reads the token from the environment.
type EnvToken struct {
	// Environ overrides the process environment when set.
	Environ map[string]string
}

// Token implements TokenSource.
func (e EnvToken) Token(context.Context) (string, error) {
	tok, err := TokenFromEnv(e.Environ)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// FileToken reads the token from a file, trimming surrounding whitespace.
type FileToken struct {
	Path string
}

// Token implements TokenSource.
func (f FileToken) Token(context.Context) (string, error) {
	if f.Path == "" {
		return "", ErrNoToken
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty: %w", f.Path, ErrNoToken)
	}
	return tok, nil
}

// SecretsAPI is the part of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerToken reads the token from AWS Secrets Manager. The secret
// may hold the raw token or a JSON object with a "motherduck_token" or
// "token" field.
type SecretsManagerToken struct {
	SecretID string
	Region   string
	// Client is built from the default AWS config when nil.
	Client SecretsAPI
}

// Token implements TokenSource.
func (s SecretsManagerToken) Token(ctx context.Context) (string, error) {
	if s.SecretID == "" {
		return "", ErrNoToken
	}

	client := s.Client
	if client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if s.Region != "" {
			opts = append(opts, awsconfig.WithRegion(s.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", s.SecretID, err)
	}
	return parseSecret(aws.ToString(out.SecretString))
}

func parseSecret(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoToken
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return "", fmt.Errorf("failed to decode secret: %w", err)
	}
	for _, key := range []string{TokenKey, "token"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("secret field %s: %w", key, ErrTokenType)
		}
		return s, nil
	}
	return "", fmt.Errorf("secret has no %s or token field: %w", TokenKey, ErrNoToken)
}

// ChainToken returns the first token any source yields. Sources answering
// ErrNoToken are skipped; other errors stop the chain.
type ChainToken []TokenSource

// Token implements TokenSource.
func (c ChainToken) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		tok, err := src.Token(ctx)
		if errors.Is(err, ErrNoToken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return tok, nil
	}
	return "", ErrNoToken
}

// ResolveToken sets motherduck_token in config from src when it is absent.
// A source with nothing to offer leaves config untouched.
func ResolveToken(ctx context.Context, config map[string]any, src TokenSource) error {
	if _, ok := config[TokenKey]; ok || src == nil {
		return nil
	}
	tok, err := src.Token(ctx)
	if errors.Is(err, ErrNoToken) {
		return nil
	}
	if err != nil {
		return err
	}
	config[TokenKey] = tok
	return nil
}
