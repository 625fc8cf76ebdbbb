package models

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LabelSet identifies a built-in list of class labels.
type LabelSet string

const (
	// LabelSetCOCO is the 80 COCO classes without background, as indexed by
	// YOLO models.
	LabelSetCOCO LabelSet = "coco"
	// LabelSetVOC is the 20 Pascal VOC classes without background.
	LabelSetVOC LabelSet = "voc"
)

// Labels maps zero-based class indices to names.
type Labels []string

// Name returns the label of class idx, or "class_<idx>" when idx is out of
// range.
func (l Labels) Name(idx int) string {
	if idx >= 0 && idx < len(l) && l[idx] != "" {
		return l[idx]
	}
	return fmt.Sprintf("class_%d", idx)
}

// Index returns the index of name, or -1 when it is not in the set.
func (l Labels) Index(name string) int {
	for i, n := range l {
		if n == name {
			return i
		}
	}
	return -1
}

// COCOLabels is the 80 COCO classes (no background).
// YOLO models index directly into this zero-based list.
var COCOLabels = Labels{
	"person",
	"bicycle",
	"car",
	"motorcycle",
	"airplane",
	"bus",
	"train",
	"truck",
	"boat",
	"traffic light",
	"fire hydrant",
	"stop sign",
	"parking meter",
	"bench",
	"bird",
	"cat",
	"dog",
	"horse",
	"sheep",
	"cow",
	"elephant",
	"bear",
	"zebra",
	"giraffe",
	"backpack",
	"umbrella",
	"handbag",
	"tie",
	"suitcase",
	"frisbee",
	"skis",
	"snowboard",
	"sports ball",
	"kite",
	"baseball bat",
	"baseball glove",
	"skateboard",
	"surfboard",
	"tennis racket",
	"bottle",
	"wine glass",
	"cup",
	"fork",
	"knife",
	"spoon",
	"bowl",
	"banana",
	"apple",
	"sandwich",
	"orange",
	"broccoli",
	"carrot",
	"hot dog",
	"pizza",
	"donut",
	"cake",
	"chair",
	"couch",
	"potted plant",
	"bed",
	"dining table",
	"toilet",
	"tv",
	"laptop",
	"mouse",
	"remote",
	"keyboard",
	"cell phone",
	"microwave",
	"oven",
	"toaster",
	"sink",
	"refrigerator",
	"book",
	"clock",
	"vase",
	"scissors",
	"teddy bear",
	"hair drier",
	"toothbrush",
}

// VOCLabels is the 20 Pascal VOC classes (no background).
var VOCLabels = Labels{
	"aeroplane",
	"bicycle",
	"bird",
	"boat",
	"bottle",
	"bus",
	"car",
	"cat",
	"chair",
	"cow",
	"diningtable",
	"dog",
	"horse",
	"motorbike",
	"person",
	"pottedplant",
	"sheep",
	"sofa",
	"train",
	"tvmonitor",
}

// LookupLabelSet returns a copy of the built-in labels of set.
func LookupLabelSet(set LabelSet) (Labels, error) {
	switch set {
	case LabelSetCOCO:
		return append(Labels(nil), COCOLabels...), nil
	case LabelSetVOC:
		return append(Labels(nil), VOCLabels...), nil
	default:
		return nil, errors.Errorf("unknown label set %q", set)
	}
}

// LoadLabels reads class labels from a text file with one label per line.
// Line i holds the label of class i.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open labels")
	}
	defer f.Close()

	var labels Labels
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read labels %s", path)
	}

	// Trailing blank lines are not classes.
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("labels file %s is empty", path)
	}

	return labels, nil
}
