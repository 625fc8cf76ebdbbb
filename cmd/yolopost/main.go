package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/nvr-ai/go-yolo/config"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/nvr-ai/go-yolo/server"
	"github.com/nvr-ai/go-yolo/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorgonia.org/tensor"
)

// InputType represents the kind of model outputs being processed.
type InputType int

const (
	// InputPair is a confidence/coordinates pair of .npy files.
	InputPair InputType = iota
	// InputRaw is a single output .npy file.
	InputRaw
	// InputDirectory is a directory of frame-<n>.npy single outputs.
	InputDirectory
)

// InputConfig holds the input configuration.
type InputConfig struct {
	Type            InputType
	ConfidencePath  string
	CoordinatesPath string
	OutputPath      string
	Dir             string
}

// flags holds the command line arguments.
type flags struct {
	configPath      string
	processor       string
	confidence      float64
	iou             float64
	labels          string
	confidencePath  string
	coordinatesPath string
	outputPath      string
	dir             string
	camera          string
	model           string
	serve           bool
	addr            string
}

// Record is one line of output.
type Record struct {
	Frame      int                  `json:"frame"`
	Path       string               `json:"path,omitempty"`
	Count      int                  `json:"count"`
	Detections []postprocess.Result `json:"detections"`
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&f.processor, "processor", "", "Post processor: yolo, yolov5 or yolov8")
	flag.Float64Var(&f.confidence, "confidence", 0, "Confidence threshold (0 keeps the configured value, -1 keeps every candidate)")
	flag.Float64Var(&f.iou, "iou", 0, "NMS IoU threshold (0 keeps the configured value)")
	flag.StringVar(&f.labels, "labels", "", "Path to a labels file with one class per line")
	flag.StringVar(&f.confidencePath, "confidence-npy", "", "Path to the confidence output (.npy)")
	flag.StringVar(&f.coordinatesPath, "coordinates-npy", "", "Path to the coordinates output (.npy)")
	flag.StringVar(&f.outputPath, "output-npy", "", "Path to a single raw output (.npy)")
	flag.StringVar(&f.dir, "dir", "", "Directory of frame-<n>.npy raw outputs")
	flag.StringVar(&f.camera, "camera", "", "Camera frame size, WxH")
	flag.StringVar(&f.model, "model", "", "Model input size, WxH")
	flag.BoolVar(&f.serve, "serve", false, "Serve the HTTP API instead of processing files")
	flag.StringVar(&f.addr, "addr", "", "HTTP listen address")
	flag.Parse()

	cfg, err := loadConfig(f)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := cfg.NewLogger()

	if f.serve {
		if err := serve(cfg, log); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	input, err := validateInputFlags(f)
	if err != nil {
		log.Fatal(err)
	}

	processor, err := models.NewProcessor(cfg.Processor)
	if err != nil {
		log.Fatalf("Failed to create post processor: %v", err)
	}
	log.WithFields(logrus.Fields{
		"processor":  processor.Name(),
		"confidence": cfg.Processor.ConfidenceThreshold,
		"iou":        cfg.Processor.NMS.IoUThreshold,
	}).Debug("Post processor initialized")

	if err := run(input, cfg.Processor, processor, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration file, if any, and applies the command
// line overrides.
func loadConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}

	p := &cfg.Processor
	if f.processor != "" {
		p.Name = model.Name(f.processor)
	}
	if f.confidence != 0 {
		p.ConfidenceThreshold = float32(f.confidence)
	}
	if f.iou != 0 {
		nms := *p.NMS
		nms.IoUThreshold = float32(f.iou)
		p.NMS = &nms
	}
	if f.labels != "" {
		p.LabelsFile = f.labels
	}
	if f.camera != "" {
		size, err := images.ParseSize(f.camera)
		if err != nil {
			return config.Config{}, errors.Wrap(err, "-camera")
		}
		p.CameraSize = size
	}
	if f.model != "" {
		size, err := images.ParseSize(f.model)
		if err != nil {
			return config.Config{}, errors.Wrap(err, "-model")
		}
		p.InputSize = size
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}

	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

// validateInputFlags picks the input type from the path flags.
func validateInputFlags(f flags) (InputConfig, error) {
	set := 0
	for _, v := range []bool{f.confidencePath != "" || f.coordinatesPath != "", f.outputPath != "", f.dir != ""} {
		if v {
			set++
		}
	}
	if set != 1 {
		return InputConfig{}, errors.New("exactly one of -confidence-npy/-coordinates-npy, -output-npy or -dir is required")
	}

	switch {
	case f.outputPath != "":
		return InputConfig{Type: InputRaw, OutputPath: f.outputPath}, nil
	case f.dir != "":
		return InputConfig{Type: InputDirectory, Dir: f.dir}, nil
	case f.confidencePath == "" || f.coordinatesPath == "":
		return InputConfig{}, errors.New("-confidence-npy and -coordinates-npy must be used together")
	default:
		return InputConfig{Type: InputPair, ConfidencePath: f.confidencePath, CoordinatesPath: f.coordinatesPath}, nil
	}
}

// run processes the input and writes one JSON record per frame to w.
func run(input InputConfig, cfg model.Config, processor model.Processor, w io.Writer) error {
	enc := json.NewEncoder(w)
	emit := func(frame int, path string, outputs model.Outputs) error {
		detections, err := processor.Process(outputs)
		if err != nil {
			return errors.Wrapf(err, "frame %d", frame)
		}
		return enc.Encode(Record{Frame: frame, Path: path, Count: len(detections), Detections: detections})
	}

	switch input.Type {
	case InputPair:
		confidence, err := multiarray.LoadNpy(input.ConfidencePath)
		if err != nil {
			return err
		}
		coordinates, err := multiarray.LoadNpy(input.CoordinatesPath)
		if err != nil {
			return err
		}
		return emit(0, "", model.Outputs{
			cfg.Outputs.Confidence:  confidence,
			cfg.Outputs.Coordinates: coordinates,
		})
	case InputRaw:
		output, err := multiarray.LoadNpy(input.OutputPath)
		if err != nil {
			return err
		}
		return emit(0, input.OutputPath, rawOutputs(cfg, output))
	case InputDirectory:
		files, err := util.LoadDirectoryTensorFiles(input.Dir)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := emit(file.Frame, file.Path, rawOutputs(cfg, file.Tensor)); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown input type %d", input.Type)
	}
}

func rawOutputs(cfg model.Config, t tensor.Tensor) model.Outputs {
	return model.Outputs{cfg.Outputs.Raw: t}
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(cfg config.Config, log *logrus.Logger) error {
	s, err := server.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}
