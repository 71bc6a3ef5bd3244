package notifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// loadAWSConfig resolves the SDK config, using static keys when both are set and the
// default credential chain otherwise.
func loadAWSConfig(ctx context.Context, s Settings) (aws.Config, error) {
	var opts []func(*awscfg.LoadOptions) error
	if region := strings.TrimSpace(s.AWSRegion); region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}

	id := strings.TrimSpace(s.AWSAccessKeyID)
	secret := strings.TrimSpace(s.AWSSecretAccessKey)
	if id != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
