package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/ui"
)

type envReport struct {
	Version       string  `json:"version"         yaml:"version"`
	OS            string  `json:"os"              yaml:"os"`
	Arch          string  `json:"arch"            yaml:"arch"`
	GoVersion     string  `json:"go_version"      yaml:"go_version"`
	ConfigPath    string  `json:"config_path"     yaml:"config_path"`
	CopyFileRange bool    `json:"copy_file_range" yaml:"copy_file_range"`
	IOURing       bool    `json:"io_uring"        yaml:"io_uring"`
	BufferSize    int     `json:"buffer_size"     yaml:"buffer_size"`
	CPU           cpuInfo `json:"cpu"             yaml:"cpu"`

	Benchmark *benchReport `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
}

type benchReport struct {
	Dir           string  `json:"dir"            yaml:"dir"`
	ReadBPS       float64 `json:"read_bps"       yaml:"read_bps"`
	WriteBPS      float64 `json:"write_bps"      yaml:"write_bps"`
	SuggestedJobs int     `json:"suggested_jobs" yaml:"suggested_jobs"`
}

// benchSize is the scratch file size for env --bench.
const benchSize = 16 << 20

type cpuInfo struct {
	Brand         string `json:"brand"          yaml:"brand"`
	PhysicalCores int    `json:"physical_cores" yaml:"physical_cores"`
	LogicalCores  int    `json:"logical_cores"  yaml:"logical_cores"`
	CacheLine     int    `json:"cache_line"     yaml:"cache_line"`
	AVX2          bool   `json:"avx2"           yaml:"avx2"`
	AVX512        bool   `json:"avx512"         yaml:"avx512"`
}

func newEnvCmd(stdout io.Writer) *cobra.Command {
	var output, benchDir string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Report platform capabilities ferry uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := collectEnv(os.TempDir())
			if benchDir != "" {
				res, err := engine.RunBenchmark(cmd.Context(), platform.Unix{}, benchDir, benchSize)
				if err != nil {
					return err
				}
				r.BufferSize = res.BufferSize
				r.Benchmark = &benchReport{
					Dir:           benchDir,
					ReadBPS:       res.ReadBytesPerSec,
					WriteBPS:      res.WriteBytesPerSec,
					SuggestedJobs: res.SuggestedJobs,
				}
			}
			return writeEnv(stdout, r, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&benchDir, "bench", "", "measure read/write throughput in `DIR` and suggest --jobs")
	return cmd
}

func collectEnv(dir string) envReport {
	return envReport{
		Version:       version,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		GoVersion:     runtime.Version(),
		ConfigPath:    config.Path(),
		CopyFileRange: detectCopyFileRange(dir),
		IOURing:       platform.KernelSupportsIOURing(),
		BufferSize:    platform.BufferSize(platform.Unix{}, dir, dir),
		CPU: cpuInfo{
			Brand:         cpuid.CPU.BrandName,
			PhysicalCores: cpuid.CPU.PhysicalCores,
			LogicalCores:  cpuid.CPU.LogicalCores,
			CacheLine:     cpuid.CPU.CacheLine,
			AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
			AVX512:        cpuid.CPU.Supports(cpuid.AVX512F),
		},
	}
}

// detectCopyFileRange copies one byte between two scratch files in dir.
func detectCopyFileRange(dir string) bool {
	scratch, err := os.MkdirTemp(dir, "ferry-detect-")
	if err != nil {
		return false
	}
	defer os.RemoveAll(scratch)

	src := filepath.Join(scratch, "src")
	if err := os.WriteFile(src, []byte{0}, 0o600); err != nil {
		return false
	}

	d := platform.Unix{}
	srcFd, err := d.Open(src, unix.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer d.Close(srcFd)
	dstFd, err := d.Open(filepath.Join(scratch, "dst"), unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, 0o600)
	if err != nil {
		return false
	}
	defer d.Close(dstFd)

	n, err := d.CopyFileRange(srcFd, dstFd, 1)
	return err == nil && n == 1
}

func writeEnv(w io.Writer, r envReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"version", r.Version},
			{"platform", r.OS + "/" + r.Arch},
			{"go", r.GoVersion},
			{"config", r.ConfigPath},
			{"copy_file_range", yesNo(r.CopyFileRange)},
			{"io_uring", yesNo(r.IOURing)},
			{"buffer size", fmt.Sprintf("%d", r.BufferSize)},
			{"cpu", r.CPU.Brand},
			{"cores", fmt.Sprintf("%d physical, %d logical", r.CPU.PhysicalCores, r.CPU.LogicalCores)},
			{"cache line", fmt.Sprintf("%d", r.CPU.CacheLine)},
			{"avx2", yesNo(r.CPU.AVX2)},
			{"avx512", yesNo(r.CPU.AVX512)},
		}
		if b := r.Benchmark; b != nil {
			rows = append(rows,
				[2]string{"bench dir", b.Dir},
				[2]string{"read", ui.FormatRate(b.ReadBPS)},
				[2]string{"write", ui.FormatRate(b.WriteBPS)},
				[2]string{"suggested jobs", fmt.Sprintf("%d", b.SuggestedJobs)},
			)
		}
		for _, row := range rows {
			fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
