package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// TensorFile represents a model output dumped to a .npy file.
type TensorFile struct {
	// Path is the path to the .npy file.
	Path string
	// Tensor is the decoded output.
	Tensor *tensor.Dense
	// Frame is the frame number of the file.
	Frame int
}

// LoadDirectoryTensorFiles reads all frame-<n>.npy files from a directory.
//
// Arguments:
// - dir: Directory path containing the .npy files.
//
// Returns:
// - []TensorFile: The decoded outputs sorted by frame number.
// - error: Error if loading fails.
func LoadDirectoryTensorFiles(dir string) ([]TensorFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read directory")
	}

	var tensors []TensorFile
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".npy" {
			continue
		}

		name := strings.TrimSuffix(file.Name(), ".npy")
		if !strings.HasPrefix(name, "frame-") {
			continue
		}
		frame, err := strconv.Atoi(strings.TrimPrefix(name, "frame-"))
		if err != nil {
			return nil, errors.Wrapf(err, "frame number of %s", file.Name())
		}

		path := filepath.Join(dir, file.Name())
		t, err := multiarray.LoadNpy(path)
		if err != nil {
			return nil, err
		}
		tensors = append(tensors, TensorFile{
			Path:   path,
			Tensor: t,
			Frame:  frame,
		})
	}

	sort.Slice(tensors, func(i, j int) bool {
		return tensors[i].Frame < tensors[j].Frame
	})

	return tensors, nil
}
