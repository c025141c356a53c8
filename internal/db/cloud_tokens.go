package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// TokenProvider acquires the short-lived password used by cloud-hosted
// PostgreSQL. String must not reveal secrets; it appears in logs.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)
	String() string
}

// AzurePostgreSQLScope is the Entra ID scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is how long RDS accepts a generated IAM token.
const rdsTokenLifetime = 15 * time.Minute

// tokenRefreshMargin is how long before expiry a cached token is replaced.
const tokenRefreshMargin = 2 * time.Minute

// rdsTokenProvider signs RDS IAM tokens with the default AWS credential chain.
// The AWS config is loaded on first use and reused afterwards.
type rdsTokenProvider struct {
	endpoint string
	region   string
	username string

	once    sync.Once
	creds   aws.CredentialsProvider
	loadErr error
}

func newRDSTokenProvider(host string, port int, region, username string) (*rdsTokenProvider, error) {
	switch {
	case host == "":
		return nil, fmt.Errorf("AWS IAM auth requires a host")
	case region == "":
		return nil, fmt.Errorf("AWS IAM auth requires a region (--aws-region or $AWS_REGION)")
	case username == "":
		return nil, fmt.Errorf("AWS IAM auth requires a database username")
	}
	return &rdsTokenProvider{
		endpoint: fmt.Sprintf("%s:%d", host, port),
		region:   region,
		username: username,
	}, nil
}

func (p *rdsTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	p.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
		if err != nil {
			p.loadErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		p.creds = cfg.Credentials
	})
	if p.loadErr != nil {
		return "", time.Time{}, p.loadErr
	}

	issued := time.Now()
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, p.creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	return token, issued.Add(rdsTokenLifetime), nil
}

func (p *rdsTokenProvider) String() string {
	return fmt.Sprintf("AWS IAM (endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}

// entraTokenProvider requests PostgreSQL tokens from an Entra ID credential.
type entraTokenProvider struct {
	credential azcore.TokenCredential
	desc       string
}

// newEntraTokenProvider uses a service principal when tenant, client and
// secret are all set, and the DefaultAzureCredential chain otherwise.
func newEntraTokenProvider(tenantID, clientID, clientSecret string) (*entraTokenProvider, error) {
	if tenantID != "" && clientID != "" && clientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure service principal credential: %w", err)
		}
		return &entraTokenProvider{
			credential: cred,
			desc:       fmt.Sprintf("Azure service principal (tenant=%s, client=%s)", tenantID, clientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &entraTokenProvider{credential: cred, desc: "Azure default credential chain"}, nil
}

func (p *entraTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{AzurePostgreSQLScope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return tok.Token, tok.ExpiresOn, nil
}

func (p *entraTokenProvider) String() string { return p.desc }

// cachingTokenProvider hands out the last token until it is within
// tokenRefreshMargin of expiry. A run connects once to the management
// database and once per target schema, so most calls hit the cache.
type cachingTokenProvider struct {
	next TokenProvider
	now  func() time.Time

	mu        sync.Mutex
	token     string
	expiresOn time.Time
}

func newCachingTokenProvider(next TokenProvider) *cachingTokenProvider {
	return &cachingTokenProvider{next: next, now: time.Now}
}

func (p *cachingTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Add(tokenRefreshMargin).Before(p.expiresOn) {
		return p.token, p.expiresOn, nil
	}
	token, expiresOn, err := p.next.GetToken(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	p.token, p.expiresOn = token, expiresOn
	return token, expiresOn, nil
}

func (p *cachingTokenProvider) String() string { return p.next.String() }
