package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	galleon "github.com/NerdMeNot/galleon-frames"
)

// jobFile is the TOML description of a batch of joins.
//
//	max_workers = 4
//	log_level = "debug"
//
//	[[job]]
//	name = "orders"
//	left = "orders.csv"
//	right = "customers.parquet"
//	on = ["customer_id"]
//	how = "left"
//	output = "orders_customers.parquet"
//
// batch_size > 0 parses CSV inputs that many rows at a time; column types are
// then inferred from the first batch.
type jobFile struct {
	MaxWorkers int      `toml:"max_workers"`
	LogLevel   string   `toml:"log_level"`
	SeqURL     string   `toml:"seq_url"`
	BatchSize  int      `toml:"batch_size"`
	Jobs       []jobDef `toml:"job"`
}

type jobDef struct {
	Name        string   `toml:"name"`
	Left        string   `toml:"left"`
	Right       string   `toml:"right"`
	On          []string `toml:"on"`
	LeftOn      []string `toml:"left_on"`
	RightOn     []string `toml:"right_on"`
	How         string   `toml:"how"`
	Suffix      string   `toml:"suffix"`
	Indicator   string   `toml:"indicator"`
	UniqueLeft  bool     `toml:"unique_left"`
	UniqueRight bool     `toml:"unique_right"`
	Output      string   `toml:"output"`
}

func loadJobFile(path string) (*jobFile, error) {
	var jf jobFile
	md, err := toml.DecodeFile(path, &jf)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("%s: no [[job]] entries", path)
	}
	for i := range jf.Jobs {
		if err := jf.Jobs[i].check(); err != nil {
			return nil, fmt.Errorf("%s: job %d: %w", path, i, err)
		}
		if jf.Jobs[i].Name == "" {
			jf.Jobs[i].Name = fmt.Sprintf("job%d", i)
		}
	}
	return &jf, nil
}

func (j jobDef) check() error {
	if j.Left == "" || j.Right == "" {
		return fmt.Errorf("left and right tables are required")
	}
	if j.Output != "" {
		if _, err := formatOf(j.Output); err != nil {
			return err
		}
	}
	return nil
}

// options translates the job into join options.
func (j jobDef) options() (galleon.JoinOptions, error) {
	how := galleon.InnerJoin
	if j.How != "" {
		var err error
		if how, err = galleon.ParseJoinType(j.How); err != nil {
			return galleon.JoinOptions{}, err
		}
	}

	var opts galleon.JoinOptions
	switch {
	case len(j.On) > 0:
		opts = galleon.On(j.On...)
	case len(j.LeftOn) > 0 || len(j.RightOn) > 0:
		opts = galleon.LeftOn(j.LeftOn...).RightOn(j.RightOn...)
	}
	opts = opts.How(how).WithSuffix(j.Suffix).Validate(j.UniqueLeft, j.UniqueRight)
	if j.Indicator != "" {
		opts = opts.WithIndicator(j.Indicator)
	}
	return opts, nil
}

type tableFormat int

const (
	formatCSV tableFormat = iota
	formatParquet
)

func formatOf(path string) (tableFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return formatCSV, nil
	case ".parquet", ".pq":
		return formatParquet, nil
	default:
		return 0, fmt.Errorf("%s: unsupported table format", path)
	}
}

func csvReadOptions(path string) galleon.CSVReadOptions {
	opts := galleon.DefaultCSVReadOptions()
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Delimiter = '\t'
	}
	return opts
}

// loadTable reads a table. With batchSize > 0 a CSV file is parsed batchSize
// rows at a time instead of all at once.
func loadTable(ctx context.Context, path string, batchSize int) (*galleon.DataFrame, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	if format == formatParquet {
		return galleon.ReadParquet(path)
	}
	if batchSize <= 0 {
		return galleon.ReadCSV(path, csvReadOptions(path))
	}
	reader, err := galleon.OpenCSVBatches(path, batchSize, csvReadOptions(path))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return galleon.ReadAll(ctx, reader)
}

func writeTable(df *galleon.DataFrame, path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	if format == formatParquet {
		return df.WriteParquet(path)
	}
	opts := galleon.DefaultCSVWriteOptions()
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Delimiter = '\t'
	}
	return df.WriteCSV(path, opts)
}

// tableCache loads each input path once across the jobs of a batch.
type tableCache struct {
	batchSize int
	tables    map[string]*galleon.DataFrame
}

func newTableCache(batchSize int) *tableCache {
	return &tableCache{batchSize: batchSize, tables: make(map[string]*galleon.DataFrame)}
}

func (c *tableCache) get(ctx context.Context, path string) (*galleon.DataFrame, error) {
	if df, ok := c.tables[path]; ok {
		return df, nil
	}
	df, err := loadTable(ctx, path, c.batchSize)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c.tables[path] = df
	return df, nil
}
