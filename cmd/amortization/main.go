package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/selfi123/Amortization-research-success/aead"
	nodelog "github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/measure"
	"github.com/selfi123/Amortization-research-success/protocol"
)

// baseline is what one handshake and one data message cost, measured from a
// simulated run.
type baseline struct {
	Profile         string  `json:"profile"`
	Messages        int     `json:"messages"`
	Handshakes      int     `json:"handshakes"`
	AuthBytes       float64 `json:"auth_bytes_per_handshake"`
	DataBytes       float64 `json:"data_bytes_per_message"`
	AuthMicros      float64 `json:"auth_us_per_handshake"`
	SignMicros      float64 `json:"sign_us"`
	VerifyMicros    float64 `json:"verify_us"`
	DecryptMicros   float64 `json:"decrypt_us_per_message"`
	FragmentsPerRun float64 `json:"fragments_per_handshake"`
}

func measureBaseline(ctx context.Context, profile aead.Profile, samples, renew int) (*baseline, error) {
	po, err := protocol.DefaultOptions()
	if err != nil {
		return nil, err
	}
	if po.Cipher, err = aead.New(profile); err != nil {
		return nil, err
	}
	po.RenewThreshold = uint32(renew)
	po.Log = nodelog.New(os.Stderr, "text", slog.LevelWarn)
	rep, err := protocol.Simulate(ctx, po, protocol.SimConfig{Messages: samples})
	if err != nil {
		return nil, err
	}
	if rep.Handshakes == 0 || rep.Delivered != rep.Messages {
		return nil, fmt.Errorf("simulation delivered %d/%d with %d handshakes", rep.Delivered, rep.Messages, rep.Handshakes)
	}
	b := &baseline{
		Profile:         profile.String(),
		Messages:        rep.Messages,
		Handshakes:      rep.Handshakes,
		AuthBytes:       float64(rep.Counters[measure.TransportBytes]) / float64(rep.Handshakes),
		DataBytes:       float64(rep.Counters[measure.SessionDataBytes]) / float64(rep.Messages),
		FragmentsPerRun: float64(rep.Counters[measure.TransportFragments]) / float64(rep.Handshakes),
	}
	for _, s := range rep.Timings {
		us := float64(s.Mean()) / float64(time.Microsecond)
		switch s.Label {
		case "protocol.Authenticate":
			b.AuthMicros = us
		case "ringsig.Sign":
			b.SignMicros = us
		case "ringsig.Verify":
			b.VerifyMicros = us
		case "session.Decrypt":
			b.DecryptMicros = us
		}
	}
	return b, nil
}

// handshakes returns how many authentications n messages need when each
// session carries threshold messages. threshold 1 is the unamortized case.
func handshakes(n, threshold int) int {
	if n <= 0 {
		return 0
	}
	return (n + threshold - 1) / threshold
}

func cumulativeBytes(b *baseline, n, threshold int) float64 {
	return float64(handshakes(n, threshold))*b.AuthBytes + float64(n)*b.DataBytes
}

func cumulativeMicros(b *baseline, n, threshold int) float64 {
	return float64(handshakes(n, threshold))*(b.AuthMicros+b.VerifyMicros) + float64(n)*b.DecryptMicros
}

func parseThresholds(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid threshold %q", f)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds")
	}
	return out, nil
}

// ------------------------- plotting: go-echarts HTML -------------------------

func seriesName(t int) string {
	if t == 1 {
		return "no amortization"
	}
	return fmt.Sprintf("renew every %d", t)
}

func newLineChart(title, subtitle, yName string, n int, thresholds []int, y func(n, t int) float64) *charts.Line {
	xs := make([]string, n)
	for i := range xs {
		xs[i] = strconv.Itoa(i + 1)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "messages"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	line.SetXAxis(xs)
	for _, t := range thresholds {
		data := make([]opts.LineData, n)
		for i := range data {
			data[i] = opts.LineData{Value: y(i+1, t)}
		}
		line.AddSeries(seriesName(t), data)
	}
	return line
}

func newPerMessageChart(b *baseline, n int, thresholds []int) *charts.Bar {
	xs := make([]string, len(thresholds))
	data := make([]opts.BarData, len(thresholds))
	for i, t := range thresholds {
		xs[i] = seriesName(t)
		data[i] = opts.BarData{Value: int(cumulativeBytes(b, n, t) / float64(n))}
	}
	bar := charts.NewBar()
	title := fmt.Sprintf("Bytes on air per message after %d messages", n)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xs).
		AddSeries("bytes/message", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return bar
}

// ------------------------------ JSON and I/O ------------------------------

func saveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ------------------------------- main routine -------------------------------

func main() {
	n := flag.Int("n", 200, "messages on the x axis")
	thresholdList := flag.String("thresholds", "1,5,10,20,50", "comma-separated renewal thresholds")
	samples := flag.Int("samples", 40, "messages in the measured simulation")
	renew := flag.Int("renew", 20, "renewal threshold of the measured simulation")
	profileName := flag.String("profile", "gcm", "AEAD profile: legacy|gcm")
	outDir := flag.String("out", "Measure_Reports", "output directory for reports")
	flag.Parse()

	if *n <= 0 || *samples <= 0 || *renew <= 0 {
		log.Fatalf("-n, -samples and -renew must be positive")
	}
	thresholds, err := parseThresholds(*thresholdList)
	if err != nil {
		log.Fatalf("thresholds: %v", err)
	}
	profile, err := aead.ParseProfile(*profileName)
	if err != nil {
		log.Fatalf("profile: %v", err)
	}

	b, err := measureBaseline(context.Background(), profile, *samples, *renew)
	if err != nil {
		log.Fatalf("measure: %v", err)
	}
	fmt.Printf("handshake: %.0f bytes (%.0f fragments), %.0fus sign+send, %.0fus verify\n",
		b.AuthBytes, b.FragmentsPerRun, b.AuthMicros, b.VerifyMicros)
	fmt.Printf("message:   %.0f bytes, %.1fus decrypt\n", b.DataBytes, b.DecryptMicros)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	ts := time.Now().Format("20060102_150405")
	jsonPath := filepath.Join(*outDir, fmt.Sprintf("amortization_%s.json", ts))
	if err := saveJSON(jsonPath, b); err != nil {
		log.Printf("warn: save baseline: %v", err)
	}

	page := components.NewPage()
	sub := fmt.Sprintf("profile=%s, handshake=%.0f B, message=%.0f B", b.Profile, b.AuthBytes, b.DataBytes)
	page.AddCharts(
		newLineChart("Cumulative bytes on air", sub, "bytes", *n, thresholds,
			func(n, t int) float64 { return cumulativeBytes(b, n, t) }),
		newLineChart("Cumulative ring-signature operations", "one sign and one verify per handshake", "handshakes", *n, thresholds,
			func(n, t int) float64 { return float64(handshakes(n, t)) }),
		newLineChart("Cumulative crypto time", "measured means, sign+send+verify per handshake plus decrypt per message", "µs", *n, thresholds,
			func(n, t int) float64 { return cumulativeMicros(b, n, t) }),
		newPerMessageChart(b, *n, thresholds),
	)

	htmlPath := filepath.Join(*outDir, fmt.Sprintf("amortization_%s.html", ts))
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("create html: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render html: %v", err)
	}
	fmt.Println("Chart page:", htmlPath)
	fmt.Println("Baseline JSON:", jsonPath)
}
