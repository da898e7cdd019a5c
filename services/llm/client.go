// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm wraps the OpenAI-compatible chat-completion endpoint used to
// request fix proposals.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ErrNoChoices indicates the endpoint answered without message content.
var ErrNoChoices = errors.New("completion response contained no choices")

// ClientConfig configures an OpenAIClient.
type ClientConfig struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// Model selects the completion model. Empty uses DefaultModel.
	Model string

	// BaseURL overrides the endpoint URL. Empty uses the OpenAI default.
	// Primarily for tests and self-hosted gateways.
	BaseURL string

	// Logger for request diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// OpenAIClient requests fix proposals from a chat-completion endpoint.
//
// Thread Safety: Safe for concurrent use; the underlying client is stateless
// per call.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClient creates a client from cfg.
//
// Outputs:
//
//	*OpenAIClient - Ready-to-use client
//	error - Non-nil if the API key is empty
func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key must not be empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(oaiCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Complete sends one system+user message pair and returns the assistant's
// message content verbatim.
//
// The call is bound to ctx: cancelling the context aborts the in-flight
// HTTP request and Complete returns an error wrapping the context error.
//
// Inputs:
//
//	ctx - Context for cancellation
//	system - The fixed system instruction
//	user - The user message (failure output plus file contents)
//
// Outputs:
//
//	string - The assistant message content
//	error - Transport failure, context cancellation, or ErrNoChoices
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.logger.Debug("requesting completion",
		slog.String("model", c.model),
		slog.Int("user_bytes", len(user)),
	)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("completion aborted: %w", ctx.Err())
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Debug("completion received",
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}
