// Package server exposes the planner over a small JSON HTTP API.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/config"
	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/reserve"
	"github.com/iwvelando/yield-planner/internal/store"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/output"
	"github.com/iwvelando/yield-planner/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	engine        *engine.Engine
	maxUploadSize int64
	version       string
	catalogStore  *store.FileStore
}

type computeOptions struct {
	IncludeCSV bool
}

// NewHandler constructs the HTTP handler that serves the planner API. When
// catalogStore is non-nil the persisted catalog can be read and replaced, and
// requests without tariffs fall back to it.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, catalogStore *store.FileStore) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		engine:        engine.NewEngine(logger),
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		catalogStore:  catalogStore,
	}

	mux := http.NewServeMux()

	// Full computation from an uploaded YAML file or a JSON body
	mux.HandleFunc("/api/compute", h.handleCompute)

	// Reserve simulation only
	mux.HandleFunc("/api/simulate", h.handleSimulate)

	// Normalization of an untrusted catalog record
	mux.HandleFunc("/api/catalog/normalize", h.handleNormalize)

	// Persisted catalog record
	mux.HandleFunc("/api/catalog", h.handleCatalog)

	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type computeResponse struct {
	Result     engine.Result          `json:"result"`
	Warnings   []string               `json:"warnings,omitempty"`
	CSV        string                 `json:"csv,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type simulateResponse struct {
	Reserve  reserve.Result `json:"reserve"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

type normalizeResponse struct {
	Catalog     catalog.Catalog `json:"catalog"`
	Warnings    []string        `json:"warnings,omitempty"`
	CatalogYAML string          `json:"catalogYaml"`
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompute"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	configBytes, opts, status, err := h.readConfig(w, r)
	if err != nil {
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	cfg, warnings, err := h.loadConfig(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result := h.engine.Compute(cfg.State())

	response := computeResponse{
		Result:     result,
		Warnings:   warnings,
		ConfigYAML: string(configBytes),
	}
	if configMap, err := decodeYAMLToMap(configBytes); err == nil {
		response.Config = configMap
	}
	if opts.IncludeCSV {
		var buf bytes.Buffer
		if err := output.WriteCSV(&buf, result); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
			return
		}
		response.CSV = buf.String()
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("portfolio computed",
		zap.String("op", op),
		zap.Int("deposits", len(result.Portfolio.Rows)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	configBytes, _, status, err := h.readConfig(w, r)
	if err != nil {
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	cfg, warnings, err := h.loadConfig(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if len(cfg.Segments) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "configuration has no segments to simulate", op)
		return
	}

	result := h.engine.SimulateReserveSurvival(cfg.Catalog, cfg.Segments)
	h.writeJSON(w, http.StatusOK, simulateResponse{
		Reserve:  result,
		Warnings: warnings,
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleNormalize"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	raw, err := h.decodeRecord(w, r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	c := catalog.NormalizeCatalog(raw)
	yamlBytes, err := marshalOrderedCatalogYAML(c)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode catalog: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, normalizeResponse{
		Catalog:     c,
		Warnings:    validation.ValidateCatalog(c),
		CatalogYAML: string(yamlBytes),
	})
}

func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCatalog"
	if h.catalogStore == nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "no catalog store configured", op)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := h.catalogStore.Load()
		if errors.Is(err, fs.ErrNotExist) {
			h.respondErrorWithOp(w, http.StatusNotFound, "catalog store is empty", op)
			return
		}
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		h.writeJSON(w, http.StatusOK, record)

	case http.MethodPut:
		raw, err := h.decodeRecord(w, r)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		record := store.FromCatalog(catalog.NormalizeCatalog(raw))
		if err := h.catalogStore.Save(record); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		h.logger.Info("catalog saved",
			zap.String("op", op),
			zap.String("path", h.catalogStore.Path()),
			zap.Int("tariffs", len(record.Tariffs)),
			zap.Int("boosters", len(record.Boosters)),
		)
		h.writeJSON(w, http.StatusOK, record)

	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// readConfig returns the request's configuration as YAML bytes. Multipart
// requests carry a YAML file in the "file" field; anything else is a JSON
// object, optionally wrapped as {"config": {...}, "options": {...}}.
func (h *handler) readConfig(w http.ResponseWriter, r *http.Request) ([]byte, computeOptions, int, error) {
	var opts computeOptions
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return nil, opts, statusForBodyError(err), bodyError("failed to parse upload", err, h.maxUploadSize)
		}
		opts.IncludeCSV = coerceBool(r.FormValue("csv"))

		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, opts, http.StatusBadRequest, errors.New("missing configuration file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readConfig"),
					zap.Error(closeErr),
				)
			}
		}()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			return nil, opts, http.StatusInternalServerError, fmt.Errorf("failed to read configuration: %w", err)
		}
		return buf.Bytes(), opts, http.StatusOK, nil
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, opts, statusForBodyError(err), bodyError("failed to decode configuration", err, h.maxUploadSize)
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			return nil, opts, http.StatusBadRequest, errors.New("invalid config payload: expected object")
		}
		configPayload = cfgMap
	}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			return nil, opts, http.StatusBadRequest, errors.New("invalid options payload: expected object")
		}
		opts.IncludeCSV = coerceBool(optsMap["csv"])
	}

	configBytes, err := marshalOrderedConfigYAML(configPayload)
	if err != nil {
		return nil, opts, http.StatusBadRequest, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return configBytes, opts, http.StatusOK, nil
}

// loadConfig parses the configuration and fills in the stored catalog when
// the request brings no tariffs of its own.
func (h *handler) loadConfig(configBytes []byte) (*config.Configuration, []string, error) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		return nil, nil, err
	}

	if len(cfg.Catalog.Tariffs) == 0 && h.catalogStore != nil {
		record, err := h.catalogStore.Load()
		switch {
		case err == nil:
			cfg.Catalog = record.Apply(cfg.Catalog)
		case !errors.Is(err, fs.ErrNotExist):
			h.logger.Warn("failed to load catalog store",
				zap.String("op", "server.loadConfig"),
				zap.Error(err),
			)
		}
	}

	return cfg, cfg.ValidateConfiguration(), nil
}

func (h *handler) decodeRecord(w http.ResponseWriter, r *http.Request) (catalog.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var raw catalog.Record
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, bodyError("failed to decode catalog", err, h.maxUploadSize)
	}
	if raw == nil {
		raw = make(catalog.Record)
	}
	return raw, nil
}

func statusForBodyError(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func bodyError(msg string, err error, limit int64) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("upload exceeds limit of %d bytes", limit)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// marshalOrderedCatalogYAML writes the catalog sections in a fixed order so
// exported files diff cleanly.
func marshalOrderedCatalogYAML(c catalog.Catalog) ([]byte, error) {
	items := []orderedItem{
		{key: "subscriptions", value: c.Subscriptions},
		{key: "tariffs", value: c.Tariffs},
		{key: "boosters", value: c.Boosters},
		{key: "pricingControls", value: c.PricingControls},
	}
	return yaml.Marshal(orderedConfig{items: items})
}

// marshalOrderedConfigYAML writes logging and output first, then every other
// top-level key alphabetically.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; !already {
			remainingKeys = append(remainingKeys, key)
		}
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
