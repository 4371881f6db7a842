package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/filter"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/compress"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
)

const (
	defaultCount = 10
	maxCount     = 1000

	textLogSummary = "text_log_summary"
	structuredLog  = "Structured Log"
)

// ArtifactReader fetches stored artifacts matching a set of conditions.
type ArtifactReader interface {
	GetJobArtifacts(ctx *artifactcontext.Context, project string, conditions []filter.Condition, offset, count int) ([]*model.JobArtifact, error)
}

type ArtifactServer struct {
	reader       ArtifactReader
	decompressor compress.Decompressor
}

func NewArtifactServer(reader ArtifactReader, decompressor compress.Decompressor) *ArtifactServer {
	return &ArtifactServer{reader: reader, decompressor: decompressor}
}

// Handler routes the artifact api.
func (s *ArtifactServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/project/{project}/artifact/", s.listArtifacts).Methods(http.MethodGet)
	return r
}

type artifactResponse struct {
	Id    int64       `json:"id"`
	JobId int64       `json:"job_id"`
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Blob  interface{} `json:"blob"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// listArtifacts handles GET /api/project/{project}/artifact/.
// Query parameters other than offset and count are filters, e.g. name__in=a,b or job_id__gte=10.
// count defaults to 10 and is capped at 1000.
func (s *ArtifactServer) listArtifacts(w http.ResponseWriter, r *http.Request) {
	project := mux.Vars(r)["project"]
	ctx := artifactcontext.WithProject(artifactcontext.FromContext(r.Context()), project)

	f, err := filter.NewUrlQueryFilter(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	rewriteLegacyLogSummary(f)

	offset, err := popInt(f, "offset", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	count, err := popInt(f, "count", defaultCount)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	count = min(count, maxCount)

	artifacts, err := s.reader.GetJobArtifacts(ctx, project, f.Conditions(), offset, count)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := make([]artifactResponse, 0, len(artifacts))
	for _, artifact := range artifacts {
		response = append(response, artifactResponse{
			Id:    artifact.Id,
			JobId: artifact.JobId,
			Name:  artifact.Name,
			Type:  artifact.Type,
			Blob:  s.decodeBlob(ctx, artifact),
		})
	}
	writeJson(ctx, w, http.StatusOK, response)
}

// rewriteLegacyLogSummary makes a filter on the old text_log_summary name also match its structured replacement.
func rewriteLegacyLogSummary(f *filter.UrlQueryFilter) {
	name, err := f.Get("name")
	if err != nil || name != textLogSummary {
		return
	}
	f.Set(filter.Condition{Field: "name", Operator: filter.In, Values: []string{textLogSummary, structuredLog}})
}

func popInt(f *filter.UrlQueryFilter, key string, def int) (int, error) {
	value, err := f.Pop(key, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    key,
			Value:   value,
			Message: "must be an integer",
		})
	}
	return n, nil
}

// decodeBlob decompresses the stored blob. Blobs stored uncompressed are returned as is. JSON blobs are embedded in
// the response, anything else is returned as a string.
func (s *ArtifactServer) decodeBlob(ctx *artifactcontext.Context, artifact *model.JobArtifact) interface{} {
	blob, err := s.decompressor.Decompress(artifact.Blob)
	if err != nil {
		ctx.Log.Debugf("Artifact %d is not compressed: %v", artifact.Id, err)
		blob = artifact.Blob
	}
	if artifact.Type == "json" && json.Valid(blob) {
		return json.RawMessage(blob)
	}
	return string(blob)
}

func writeError(ctx *artifactcontext.Context, w http.ResponseWriter, err error) {
	status := ingesterrors.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		logging.WithStacktrace(ctx.Log, err).Error("Failed to list artifacts")
	}
	writeJson(ctx, w, status, errorResponse{Detail: err.Error()})
}

func writeJson(ctx *artifactcontext.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctx.Log.WithError(err).Warn("Failed to write response")
	}
}
