// Package mcp exposes the analysis engine to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/spacecheck/internal/application"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/storage"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients. Internal details
// stay in the server log.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

type Server struct {
	mcpServer    *mcplib.Server
	orchestrator *application.Orchestrator
	analyzer     *application.AnalyzerService
	optimizer    *application.OptimizerService
	store        *checklist.Store
	fetcher      application.Fetcher
	repo         *storage.FilesystemRepository
}

// NewServer wires the MCP surface over the engine services. optimizer and
// repo may be nil when their backends are not configured; the matching
// tools then report that.
func NewServer(orchestrator *application.Orchestrator, analyzer *application.AnalyzerService, optimizer *application.OptimizerService, store *checklist.Store, fetcher application.Fetcher, repo *storage.FilesystemRepository) *Server {
	info := mcplib.ServerInfo{
		Name:    "spacecheck",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcplib.NewServer(info,
			mcplib.WithTitle("Spacecheck MCP Server"),
			mcplib.WithDescription("Spacecheck analyzes Databricks Genie Space configurations against a best-practices checklist."),
			mcplib.WithWebsiteURL("https://github.com/felixgeelhaar/spacecheck"),
			mcplib.WithBuildInfo(BuildCommit, BuildDate),
			mcplib.WithInstructions("Use tools to fetch and analyze Genie Spaces, inspect the checklist, and generate optimization suggestions."),
		),
		orchestrator: orchestrator,
		analyzer:     analyzer,
		optimizer:    optimizer,
		store:        store,
		fetcher:      fetcher,
		repo:         repo,
	}

	s.registerTools()
	s.registerChecklistResource()
	return s
}

type AnalyzeArgs struct {
	GenieSpaceID string `json:"genie_space_id" jsonschema:"description=The Genie Space id to analyze"`
}

type AnalyzeSectionArgs struct {
	GenieSpaceID string `json:"genie_space_id" jsonschema:"description=The Genie Space id to fetch"`
	SectionName  string `json:"section_name" jsonschema:"description=The configuration section to analyze"`
}

type GetReportArgs struct {
	GenieSpaceID string `json:"genie_space_id" jsonschema:"description=The Genie Space id of a stored report"`
}

type OptimizeArgs struct {
	GenieSpaceID string                         `json:"genie_space_id" jsonschema:"description=The Genie Space id to optimize"`
	Feedback     []application.LabelingFeedback `json:"feedback" jsonschema:"description=Labeled benchmark questions from a review session"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("spacecheck_analyze").
		Description("Run a full checklist analysis of a Genie Space and return the scored report").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("spacecheck_analyze_section").
		Description("Analyze a single configuration section of a Genie Space").
		Handler(s.handleAnalyzeSection)

	s.mcpServer.Tool("spacecheck_list_sections").
		Description("List the configuration sections the analysis covers").
		Handler(s.handleListSections)

	s.mcpServer.Tool("spacecheck_get_checklist").
		Description("Return the loaded best-practices checklist items grouped by section").
		Handler(s.handleGetChecklist)

	s.mcpServer.Tool("spacecheck_get_report").
		Description("Return a previously stored analysis report for a Genie Space").
		Handler(s.handleGetReport)

	s.mcpServer.Tool("spacecheck_optimize").
		Description("Generate field-level optimization suggestions from labeled benchmark feedback").
		Handler(s.handleOptimize)
}

func (s *Server) handleAnalyze(ctx context.Context, args AnalyzeArgs) (any, error) {
	if args.GenieSpaceID == "" {
		return nil, mcpErr("genie_space_id is required.")
	}
	out, err := s.orchestrator.Run(ctx, args.GenieSpaceID)
	if err != nil {
		return nil, mcpErr("Analysis failed. Check the space id and workspace credentials.")
	}
	if s.repo != nil {
		_ = s.repo.SaveReport(out)
	}
	return out, nil
}

func (s *Server) handleAnalyzeSection(ctx context.Context, args AnalyzeSectionArgs) (any, error) {
	if args.GenieSpaceID == "" || args.SectionName == "" {
		return nil, mcpErr("genie_space_id and section_name are required.")
	}
	doc, err := s.fetcher.FetchSpace(ctx, args.GenieSpaceID)
	if err != nil {
		return nil, mcpErr("Could not fetch the space. Check the space id and workspace credentials.")
	}
	items := s.store.Current().ItemsForSection(args.SectionName)
	return s.analyzer.AnalyzeSection(ctx, doc, doc.Section(args.SectionName), items), nil
}

func (s *Server) handleListSections(ctx context.Context, args struct{}) (any, error) {
	return map[string][]string{"sections": space.SectionNames}, nil
}

func (s *Server) handleGetChecklist(ctx context.Context, args struct{}) (any, error) {
	spec := s.store.Current()
	sections := make(map[string][]checklist.Item, len(spec.Sections()))
	for _, name := range spec.Sections() {
		sections[name] = spec.ItemsForSection(name)
	}
	return map[string]any{
		"version":  spec.Version(),
		"sections": sections,
	}, nil
}

func (s *Server) handleGetReport(ctx context.Context, args GetReportArgs) (any, error) {
	if s.repo == nil {
		return nil, mcpErr("Report storage is not configured.")
	}
	if args.GenieSpaceID == "" {
		return nil, mcpErr("genie_space_id is required.")
	}
	out, err := s.repo.LoadReport(args.GenieSpaceID)
	if err != nil {
		return nil, mcpErr("No stored report for that space. Run spacecheck_analyze first.")
	}
	return out, nil
}

func (s *Server) handleOptimize(ctx context.Context, args OptimizeArgs) (any, error) {
	if s.optimizer == nil {
		return nil, mcpErr("The optimizer backend is not configured.")
	}
	if args.GenieSpaceID == "" {
		return nil, mcpErr("genie_space_id is required.")
	}
	doc, err := s.fetcher.FetchSpace(ctx, args.GenieSpaceID)
	if err != nil {
		return nil, mcpErr("Could not fetch the space. Check the space id and workspace credentials.")
	}
	result, err := s.optimizer.GenerateOptimizations(ctx, doc, args.Feedback)
	if err != nil {
		return nil, mcpErr("Optimization failed. Check the judgment backend configuration.")
	}
	return result, nil
}

func (s *Server) registerChecklistResource() {
	s.mcpServer.Resource("spacecheck://checklist").
		Name("spacecheck://checklist").
		Description("The loaded best-practices checklist grouped by section").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			spec := s.store.Current()
			sections := make(map[string][]checklist.Item, len(spec.Sections()))
			for _, name := range spec.Sections() {
				sections[name] = spec.ItemsForSection(name)
			}
			data, err := json.Marshal(map[string]any{
				"version":  spec.Version(),
				"sections": sections,
			})
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      "spacecheck://checklist",
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcplib.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcplib.ServeHTTP(ctx, s.mcpServer, addr, mcplib.WithDefaultCORS())
}
