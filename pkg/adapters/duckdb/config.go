package duckdb

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/duckgorm/pkg/conn"
	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/motherduck"
	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

// Options turns a target configuration into conn options. environ
// replaces the process environment for token lookup when non-nil.
func Options(cfg core.TargetConfig, environ map[string]string, logger *slog.Logger) ([]conn.Option, error) {
	params, err := settings.ParseParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	params.Extensions = append(slices.Clone(cfg.Extensions), params.Extensions...)
	params.PreloadExtensions = append(slices.Clone(cfg.PreloadExtensions), params.PreloadExtensions...)
	for _, ext := range append(slices.Clone(cfg.Extensions), cfg.PreloadExtensions...) {
		if err := settings.ValidateExtensionName(ext); err != nil {
			return nil, fmt.Errorf("invalid extension in target config: %w", err)
		}
	}

	opts := []conn.Option{
		conn.WithLogger(logger),
		conn.WithParams(params),
		conn.WithConfig(cfg.Settings),
		conn.WithPoolConfig(cfg.Pool),
		conn.WithTokenSource(TokenChain(cfg.MotherDuck, environ)),
	}
	if environ != nil {
		opts = append(opts, conn.WithEnviron(environ))
	}
	if md := cfg.MotherDuck; md.ReadScaling || md.SessionHint != "" {
		opts = append(opts, conn.WithReadScaling(md.SessionHint))
	}
	return opts, nil
}

// TokenChain returns the token sources configured for a target, tried in
// order: inline token, token file, Secrets Manager, then the environment.
func TokenChain(md core.MotherDuckConfig, environ map[string]string) motherduck.TokenSource {
	var chain motherduck.ChainToken
	if md.Token != "" {
		chain = append(chain, motherduck.StaticToken(md.Token))
	}
	if md.TokenFile != "" {
		chain = append(chain, motherduck.FileToken{Path: md.TokenFile})
	}
	if md.TokenSecretID != "" {
		chain = append(chain, motherduck.SecretsManagerToken{SecretID: md.TokenSecretID, Region: md.AWSRegion})
	}
	return append(chain, motherduck.EnvToken{Environ: environ})
}
