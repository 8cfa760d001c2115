package config

import (
	"fmt"

	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/rules"
	"eicr-case-reader/internal/service"
	"eicr-case-reader/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config    domain.Config
	Logger    domain.Logger
	Rules     *rules.RuleSet
	Extractor domain.TextExtractor
	Engine    *service.Engine
	Exporter  domain.RecordExporter
}

// NewContainer creates a new dependency injection container. Fails when the
// configured rule file does not load or the backend name is unknown.
func NewContainer() (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	ruleSet, err := loadRules(config, appLogger)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(config.GetPDFBackend(), appLogger)
	if err != nil {
		return nil, err
	}

	engine := service.NewEngine(extractor, ruleSet, appLogger)
	exporter := service.NewExportService(appLogger)

	return &Container{
		Config:    config,
		Logger:    appLogger,
		Rules:     ruleSet,
		Extractor: extractor,
		Engine:    engine,
		Exporter:  exporter,
	}, nil
}

// loadRules reads the configured rule file, falling back to the built-in
// default set when none is configured.
func loadRules(config domain.Config, log domain.Logger) (*rules.RuleSet, error) {
	path := config.GetRulesPath()
	if path == "" {
		ruleSet := rules.Default()
		log.Info("Using built-in extraction rules", "version", ruleSet.Version)
		return ruleSet, nil
	}
	ruleSet, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded extraction rules", "path", path, "version", ruleSet.Version)
	return ruleSet, nil
}

// newExtractor selects the text extraction backend by name.
func newExtractor(backend string, log domain.Logger) (domain.TextExtractor, error) {
	switch backend {
	case "fitz":
		return service.NewFitzExtractor(log), nil
	case "stream":
		return service.NewStreamExtractor(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, backend)
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetEngine returns the extraction engine instance
func (c *Container) GetEngine() *service.Engine {
	return c.Engine
}

// GetExporter returns the record exporter instance
func (c *Container) GetExporter() domain.RecordExporter {
	return c.Exporter
}
