// Command server runs the RAG MCP server over stdio: it loads a YAML
// config file, builds the RAG client and query pipeline, warms the
// lexical index, and serves the knowledge-base and chat tools until
// the process receives a termination signal.
package main

import (
	"flag"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	rag "github.com/altirag/prism-rag"
	"github.com/altirag/prism-rag/common/logger"
	"github.com/altirag/prism-rag/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server config file")
	serverName := flag.String("name", "prism-rag", "MCP server name advertised to clients")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Errorf("server: failed to load config %s: %v", *configPath, err)
		os.Exit(1)
	}

	ragConfig := &rag.RAGConfig{}
	if err := ragConfig.SetConfig(cfg); err != nil {
		logger.Errorf("server: invalid config: %v", err)
		os.Exit(1)
	}

	mcpServer, err := ragConfig.NewServer(*serverName)
	if err != nil {
		logger.Errorf("server: failed to build MCP server: %v", err)
		os.Exit(1)
	}

	logger.Infof("server: %s ready, serving over stdio", *serverName)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Errorf("server: stdio transport exited with error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads a YAML config file into a config.Config, starting
// from the documented defaults and overlaying whatever the file sets.
// A missing file falls back to the bare defaults so the server can
// still start against an empty embedding/vectordb/llm provider for a
// smoke test.
func loadConfig(path string) (*config.Config, error) {
	cfg := rag.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("server: config file %s not found, starting with defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Runtime == nil {
		cfg.Runtime = config.DefaultPipelineRuntime()
	}
	return cfg, nil
}
