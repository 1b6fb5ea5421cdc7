package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractClient implements Client using AWS Textract synchronous detection.
type TextractClient struct {
	client *textract.Client
}

// NewTextractClient creates a Textract OCR client from an AWS config.
func NewTextractClient(cfg aws.Config) *TextractClient {
	return &TextractClient{client: textract.NewFromConfig(cfg)}
}

// ExtractText runs DetectDocumentText on the document bytes and returns all
// LINE blocks joined by spaces, matching line-level reading order.
func (t *TextractClient) ExtractText(ctx context.Context, document []byte) (string, error) {
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: document},
	})
	if err != nil {
		return "", fmt.Errorf("textract detect: %w", err)
	}
	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return strings.Join(lines, " "), nil
}
