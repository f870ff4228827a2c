package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/cp"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// The JSON instance format is one object per instance with attribute
// values keyed by zero-based attribute index, written sparsely. The key
// one past the last attribute index holds the target when present:
//
//	{"0":1.5, "3":-2, "4":1}
//	{"0":0.5, "2":1, "4":0}
//
// Results are emitted as one JSON array with p-values keyed by label and
// the point prediction with its confidence and credibility:
//
//	{"p-values":{"0":0.66,"1":0.04},
//	 "point-prediction":{"label":0,"confidence":0.96,"credibility":0.66}}

type pointPredictionJSON struct {
	Label       *float64 `json:"label,omitempty"`
	Confidence  float64  `json:"confidence"`
	Credibility float64  `json:"credibility"`
}

type multiProbabilisticJSON struct {
	Label            *float64 `json:"label,omitempty"`
	ProbabilityLower float64  `json:"probability-lower"`
	ProbabilityUpper float64  `json:"probability-upper"`
}

type resultJSON struct {
	PValues            map[string]float64      `json:"p-values"`
	PointPrediction    pointPredictionJSON     `json:"point-prediction"`
	TrueLabel          *float64                `json:"true-label,omitempty"`
	NCScores           map[string]float64      `json:"nc-scores,omitempty"`
	MultiProbabilistic *multiProbabilisticJSON `json:"multi-probabilistic-prediction,omitempty"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// jsonLabel maps NaN to nil so the optional label fields are omitted
// when no label is available.
func jsonLabel(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func buildResult(p cp.Prediction) resultJSON {
	labels := p.Labels()
	pValues := p.PValues()
	pv := make(map[string]float64, len(labels))
	for i, label := range labels {
		pv[formatFloat(label)] = pValues[i]
	}
	out := resultJSON{
		PValues: pv,
		PointPrediction: pointPredictionJSON{
			Label:       jsonLabel(p.PointPrediction()),
			Confidence:  p.Confidence(),
			Credibility: p.Credibility(),
		},
	}
	if mp, ok := p.(cp.MultiProbabilistic); ok {
		lower, upper := mp.ProbabilityBounds()
		out.MultiProbabilistic = &multiProbabilisticJSON{
			Label:            jsonLabel(p.PointPrediction()),
			ProbabilityLower: lower,
			ProbabilityUpper: upper,
		}
	}
	return out
}

// nonconformityScores computes the per-label scores of instance under
// the source's nonconformity function. Predictions whose source carries
// no directly callable function, such as a transductive classifier whose
// prototype is never fitted, yield nil.
func nonconformityScores(p cp.Prediction, instance mat.Vector) (map[string]float64, error) {
	source := p.Source()
	if source == nil || instance == nil {
		return nil, nil
	}
	ncFunc := source.Nonconformity()
	if ncFunc == nil || !ncFunc.IsFitted() {
		return nil, nil
	}
	labels := source.Labels()
	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		s, err := ncFunc.Score(instance, label)
		if err != nil {
			return nil, err
		}
		scores[formatFloat(label)] = s
	}
	return scores, nil
}

// ResultWriter streams classification results to w as one JSON array.
// The opening bracket is written on construction and the closing bracket
// on Close, so results can be emitted one at a time as a batch predicts.
type ResultWriter struct {
	w       io.Writer
	written int
	closed  bool
}

// NewResultWriter starts a result array on w.
func NewResultWriter(w io.Writer) (*ResultWriter, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return nil, errors.Wrap(err, "cli: write result stream")
	}
	return &ResultWriter{w: w}, nil
}

// Write appends one result to the array.
func (rw *ResultWriter) Write(p cp.Prediction) error {
	return rw.writeElement(buildResult(p))
}

// WriteDebug appends one result extended with the true label and, when
// the source's nonconformity function is directly callable, the
// per-label nonconformity scores of the instance.
func (rw *ResultWriter) WriteDebug(p cp.Prediction, instance mat.Vector, trueLabel float64) error {
	res := buildResult(p)
	res.TrueLabel = jsonLabel(trueLabel)
	scores, err := nonconformityScores(p, instance)
	if err != nil {
		return err
	}
	res.NCScores = scores
	return rw.writeElement(res)
}

func (rw *ResultWriter) writeElement(res resultJSON) error {
	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "cli: encode result")
	}
	if rw.written > 0 {
		if _, err := io.WriteString(rw.w, ","); err != nil {
			return errors.Wrap(err, "cli: write result stream")
		}
	}
	if _, err := rw.w.Write(data); err != nil {
		return errors.Wrap(err, "cli: write result stream")
	}
	rw.written++
	return nil
}

// Close terminates the array. Further writes are invalid.
func (rw *ResultWriter) Close() error {
	if rw.closed {
		return nil
	}
	rw.closed = true
	if _, err := io.WriteString(rw.w, "]\n"); err != nil {
		return errors.Wrap(err, "cli: write result stream")
	}
	return nil
}

// InstanceReader decodes a stream of JSON instances with a fixed
// attribute count. Attributes absent from an object read as zero.
type InstanceReader struct {
	dec       *json.Decoder
	nFeatures int
	count     int
}

// NewInstanceReader reads instances with nFeatures attributes from r.
func NewInstanceReader(r io.Reader, nFeatures int) *InstanceReader {
	return &InstanceReader{dec: json.NewDecoder(r), nFeatures: nFeatures}
}

// Next decodes the next instance. hasTarget reports whether the object
// carried a target value under the key one past the last attribute
// index. At the end of the stream Next returns io.EOF.
func (ir *InstanceReader) Next() (features []float64, target float64, hasTarget bool, err error) {
	var raw map[string]float64
	if err := ir.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, false, io.EOF
		}
		return nil, 0, false, errors.Wrapf(err, "cli: decode instance %d", ir.count+1)
	}
	ir.count++

	features = make([]float64, ir.nFeatures)
	for key, value := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, 0, false, errors.NewValueError("InstanceReader.Next",
				fmt.Sprintf("instance %d: attribute key %q is not an integer", ir.count, key))
		}
		switch {
		case idx == ir.nFeatures:
			target = value
			hasTarget = true
		case idx >= 0 && idx < ir.nFeatures:
			features[idx] = value
		default:
			return nil, 0, false, errors.NewValueError("InstanceReader.Next",
				fmt.Sprintf("instance %d: attribute index %d is out of range for %d attributes",
					ir.count, idx, ir.nFeatures))
		}
	}
	return features, target, hasTarget, nil
}

// WriteInstance writes features as one sparse JSON object on its own
// line. Zero-valued attributes are omitted.
func WriteInstance(w io.Writer, features []float64) error {
	return writeInstance(w, features, math.NaN())
}

// WriteInstanceWithTarget writes features together with a target value
// under the key one past the last attribute index. A NaN target is
// treated as absent.
func WriteInstanceWithTarget(w io.Writer, features []float64, target float64) error {
	return writeInstance(w, features, target)
}

func writeInstance(w io.Writer, features []float64, target float64) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, v := range features {
		if v == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, `"%d":%s`, i, formatFloat(v))
	}
	if !math.IsNaN(target) {
		if !first {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `"%d":%s`, len(features), formatFloat(target))
	}
	buf.WriteString("}\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "cli: write instance")
	}
	return nil
}
