package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"relation-chatter/internal/affinity"
	"relation-chatter/internal/config"
	"relation-chatter/internal/relation"
)

// GetRelationParams are the arguments of get_relation.
type GetRelationParams struct {
	UserID string `json:"user_id" mcp:"user identifier as stored by the bot (Telegram user ID)"`
}

// ListRelationsParams are the arguments of list_relations.
type ListRelationsParams struct{}

// RelationMCPServer serves the relation table read-only. The bot owns the
// file; every call reloads it so answers follow the latest save.
type RelationMCPServer struct {
	store    *relation.Store
	maxScore int
}

func NewRelationMCPServer(cfg *config.Relation) (*RelationMCPServer, error) {
	store, err := relation.OpenReadOnly(cfg.FilePath, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	return &RelationMCPServer{store: store, maxScore: cfg.MaxScore}, nil
}

func textResult(text string, isError bool) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func (r *RelationMCPServer) GetRelation(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[GetRelationParams]) (*mcp.CallToolResultFor[any], error) {
	userID := strings.TrimSpace(params.Arguments.UserID)
	if userID == "" {
		return textResult("user_id is required", true), nil
	}
	if err := r.store.Load(); err != nil {
		log.Printf("relation mcp: reload failed: %v", err)
		return textResult(fmt.Sprintf("failed to read relation data: %v", err), true), nil
	}
	rec, ok := r.store.Lookup(userID)
	if !ok {
		return textResult(fmt.Sprintf("no relation recorded for user %s", userID), false), nil
	}
	return textResult(fmt.Sprintf("User %s\n%s", rec.UserID, affinity.Report(rec, r.maxScore)), false), nil
}

func (r *RelationMCPServer) ListRelations(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListRelationsParams]) (*mcp.CallToolResultFor[any], error) {
	if err := r.store.Load(); err != nil {
		log.Printf("relation mcp: reload failed: %v", err)
		return textResult(fmt.Sprintf("failed to read relation data: %v", err), true), nil
	}
	return textResult(affinity.List(r.store.All(), r.maxScore), false), nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.ParseRelation()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	relServer, err := NewRelationMCPServer(cfg)
	if err != nil {
		log.Fatalf("failed to open relation store: %v", err)
	}
	log.Printf("Starting relation MCP server over %s", cfg.FilePath)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "relation-chatter-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relation",
		Description: "Returns the affinity score, note, interaction stats and recent changes for one user",
	}, relServer.GetRelation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_relations",
		Description: "Lists every known user ordered by affinity score",
	}, relServer.ListRelations)

	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
