package notifier

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ikkim/talentbase-backend/pkg/logger"
)

var ErrTemplateNotFound = errors.New("email template not found")

//go:embed templates/*
var embeddedTemplates embed.FS

// TemplateSource returns the raw text of a template file such as "password_reset.html".
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

type EmbeddedSource struct{}

func (EmbeddedSource) Load(_ context.Context, name string) (string, error) {
	data, err := embeddedTemplates.ReadFile(path.Join("templates", name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return "", err
	}
	return string(data), nil
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads templates from <bucket>/<prefix>/<name>.
type S3Source struct {
	client objectGetter
	bucket string
	prefix string
}

func NewS3Source(ctx context.Context, region, bucket, prefix, accessKeyID, secretAccessKey string) (*S3Source, error) {
	var cfg aws.Config
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		var err error
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
	}
	return &S3Source{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Source) Load(ctx context.Context, name string) (string, error) {
	key := path.Join(s.prefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
		}
		return "", fmt.Errorf("failed to get template %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", key, err)
	}
	return string(data), nil
}

// FallbackSource tries Primary first and uses Secondary when it fails.
type FallbackSource struct {
	Primary   TemplateSource
	Secondary TemplateSource
}

func (f FallbackSource) Load(ctx context.Context, name string) (string, error) {
	body, err := f.Primary.Load(ctx, name)
	if err == nil {
		return body, nil
	}
	logger.Warn("Primary template source failed, using fallback", map[string]interface{}{
		"template": name,
		"reason":   err.Error(),
	})
	return f.Secondary.Load(ctx, name)
}

type Rendered struct {
	HTML string
	Text string
}

// Renderer turns a template id into an HTML and a plain text body.
// Parsed templates are cached per id.
type Renderer struct {
	source TemplateSource

	mu    sync.Mutex
	html  map[string]*htmltemplate.Template
	plain map[string]*texttemplate.Template
}

func NewRenderer(source TemplateSource) *Renderer {
	return &Renderer{
		source: source,
		html:   make(map[string]*htmltemplate.Template),
		plain:  make(map[string]*texttemplate.Template),
	}
}

func (r *Renderer) Render(ctx context.Context, templateID string, data map[string]any) (Rendered, error) {
	htmlTpl, textTpl, err := r.templates(ctx, templateID)
	if err != nil {
		return Rendered{}, err
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTpl.Execute(&htmlBuf, data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render %s html: %w", templateID, err)
	}
	if err := textTpl.Execute(&textBuf, data); err != nil {
		return Rendered{}, fmt.Errorf("failed to render %s text: %w", templateID, err)
	}
	return Rendered{HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}

func (r *Renderer) templates(ctx context.Context, templateID string) (*htmltemplate.Template, *texttemplate.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.html[templateID]; ok {
		return h, r.plain[templateID], nil
	}

	htmlBody, err := r.source.Load(ctx, templateID+".html")
	if err != nil {
		return nil, nil, err
	}
	textBody, err := r.source.Load(ctx, templateID+".txt")
	if err != nil {
		return nil, nil, err
	}

	h, err := htmltemplate.New(templateID).Option("missingkey=error").Parse(htmlBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s html: %w", templateID, err)
	}
	t, err := texttemplate.New(templateID).Option("missingkey=error").Parse(textBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s text: %w", templateID, err)
	}

	r.html[templateID] = h
	r.plain[templateID] = t
	return h, t, nil
}
