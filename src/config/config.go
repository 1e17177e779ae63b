package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config defines the runtime configuration of the pipeline.
type Config struct {
	Datasets struct {
		International string `json:"international"` // international city-pair CSV/XLSX
		Domestic      string `json:"domestic"`      // domestic city-pair CSV/XLSX
		SheetName     string `json:"sheet_name"`    // sheet to read when the dataset is a workbook
		HeaderRow     int    `json:"header_row"`    // zero-based header row inside the sheet
	} `json:"datasets"`

	Analysis struct {
		Window         int    `json:"window"`          // centered moving-average width, months
		TopN           int    `json:"top_n"`           // rows kept after ranking
		ForecastMonths int    `json:"forecast_months"` // forecast horizon
		RangeStart     string `json:"range_start"`     // inclusive, "2006-01"
		RangeEnd       string `json:"range_end"`       // exclusive, "2006-01"
		FocusCity      string `json:"focus_city"`      // routes touching this city
	} `json:"analysis"`

	Geocode struct {
		BaseURL string   `json:"base_url"` // Nominatim-style search endpoint
		TTL     Duration `json:"ttl"`      // memo cache entry lifetime
		Timeout Duration `json:"timeout"`  // per-lookup HTTP timeout
	} `json:"geocode"`

	Email struct {
		Server        string   `json:"server"`         // IMAP server address
		Username      string   `json:"username"`       // mailbox user
		Password      string   `json:"password"`       // mailbox password
		TargetSubject string   `json:"target_subject"` // subject keyword of dataset mail
		CheckInterval Duration `json:"check_interval"` // mailbox poll interval
	} `json:"email"`

	SendEmail struct {
		Server    string `json:"server"`    // SMTP server address
		Username  string `json:"username"`  // sender account
		Password  string `json:"password"`  // sender password
		Recipient string `json:"recipient"` // report recipient
	} `json:"send_email"`

	DataDir    string `json:"data_dir"`
	OutputDir  string `json:"output_dir"`
	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
	Watch      bool   `json:"watch"` // re-run when a dataset file is rewritten
}

// DataConfig carries data-driven lookup tables: geocoding aliases for port
// names that the mapping service does not resolve as written, seeded
// coordinates that bypass the network entirely, and ports excluded from
// route rankings.
type DataConfig struct {
	GeocodeAlias    map[string]string    `json:"geocode_alias"`
	CoordinateSeeds map[string][]float64 `json:"coordinate_seeds"` // name -> [lon, lat]
	ExcludedPorts   []string             `json:"excluded_ports"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read data config file: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)
	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("failed to parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("failed to parse DataConfig: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("some configuration was not loaded")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "configuration loading hit multiple errors:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func applyDefaults(cfg *Config) {
	if cfg.Analysis.Window == 0 {
		cfg.Analysis.Window = 12
	}
	if cfg.Analysis.TopN == 0 {
		cfg.Analysis.TopN = 10
	}
	if cfg.Analysis.ForecastMonths == 0 {
		cfg.Analysis.ForecastMonths = 12
	}
	if cfg.Datasets.SheetName == "" {
		cfg.Datasets.SheetName = "Data"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.LogName == "" {
		cfg.LogName = "app.log"
	}
}

// Duration is a wrapper around time.Duration supporting JSON
// serialization as strings like "5m0s".
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (dc *DataConfig) GetGeocodeAlias(name string) string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.GeocodeAlias[name]
}

func (dc *DataConfig) SetGeocodeAlias(name, value string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.GeocodeAlias == nil {
		dc.GeocodeAlias = make(map[string]string)
	}
	dc.GeocodeAlias[name] = value
}

func (dc *DataConfig) GetCoordinateSeed(name string) []float64 {
	mu.RLock()
	defer mu.RUnlock()
	return dc.CoordinateSeeds[name]
}

func (dc *DataConfig) IsExcludedPort(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	for _, p := range dc.ExcludedPorts {
		if p == name {
			return true
		}
	}
	return false
}
