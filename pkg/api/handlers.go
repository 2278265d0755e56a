package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/pngme/pkg/chunk"
	"github.com/ssargent/pngme/pkg/chunktype"
	"github.com/ssargent/pngme/pkg/png"
	"github.com/ssargent/pngme/pkg/storage"
)

var errBodyTooLarge = errors.New("request body too large")

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleEncode builds a chunk from the request body and returns its wire form
//
//	@Summary		Encode a chunk
//	@Description	Frame the request body as a chunk of the given type. The CRC and payload length are returned in headers.
//	@Tags			chunks
//	@Accept			octet-stream
//	@Produce		octet-stream
//	@Param			type	query		string	false	"Four-letter chunk type (defaults to chunk.default_type)"
//	@Param			body	body		[]byte	true	"Payload"
//	@Success		200		{string}	byte
//	@Header			200		{integer}	X-Chunk-Crc		"CRC-32 of type and payload"
//	@Header			200		{integer}	X-Chunk-Length	"Payload length"
//	@Failure		400		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/chunks/encode [post]
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	t, err := s.chunkTypeParam(r)
	if err != nil {
		s.metrics.RecordChunkOperation("encode", 0, err)
		sendChunkError(w, err)
		return
	}

	payload, err := readBody(w, r, s.config.MaxChunkSize)
	if err != nil {
		s.sendBodyError(w, "encode", err)
		return
	}

	encoded, err := s.codec.Encode(t, payload)
	s.metrics.RecordChunkOperation("encode", len(payload), err)
	if err != nil {
		sendChunkError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Chunk-Crc", strconv.FormatUint(uint64(chunk.Checksum(t, payload)), 10))
	w.Header().Set("X-Chunk-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

// handleDecode parses and verifies a serialized chunk
//
//	@Summary		Decode a chunk
//	@Description	Parse a serialized chunk, verify its CRC and return a summary
//	@Tags			chunks
//	@Accept			octet-stream
//	@Produce		json
//	@Param			body	body		[]byte	true	"Serialized chunk"
//	@Success		200		{object}	ChunkSummary
//	@Failure		400		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/chunks/decode [post]
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, chunkLimit(s.config.MaxChunkSize))
	if err != nil {
		s.sendBodyError(w, "decode", err)
		return
	}

	c, err := s.codec.Decode(body)
	if err != nil {
		s.metrics.RecordChunkOperation("decode", 0, err)
		s.logger.Warn("rejected chunk", "kind", chunk.KindOf(err).String(), "error", err)
		sendChunkError(w, err)
		return
	}
	s.metrics.RecordChunkOperation("decode", int(c.Length()), nil)
	sendSuccess(w, summarize(c))
}

// handlePngChunks lists the chunks of an uploaded PNG file
//
//	@Summary		List PNG chunks
//	@Description	Parse an uploaded PNG file and summarize each of its chunks
//	@Tags			png
//	@Accept			octet-stream
//	@Produce		json
//	@Param			body	body		[]byte	true	"PNG file"
//	@Success		200		{array}		ChunkSummary
//	@Failure		400		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/png/chunks [post]
func (s *Server) handlePngChunks(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.config.MaxBodySize)
	if err != nil {
		s.sendBodyError(w, "png", err)
		return
	}

	p, err := png.ParseWithOptions(body, png.Options{MaxChunkSize: s.config.MaxChunkSize})
	if err != nil {
		s.metrics.RecordChunkOperation("png", 0, err)
		if errors.Is(err, png.ErrInvalidSignature) {
			sendError(w, err.Error(), "invalid_signature", http.StatusUnprocessableEntity)
			return
		}
		sendChunkError(w, err)
		return
	}

	summaries := make([]ChunkSummary, 0, len(p.Chunks()))
	for _, c := range p.Chunks() {
		summaries = append(summaries, summarize(c))
	}
	s.metrics.RecordChunkOperation("png", p.Size(), nil)
	sendSuccess(w, summaries)
}

// handleStashPut stores the request body as a new chunk
//
//	@Summary		Stash a chunk
//	@Description	Store the request body as a chunk of the given type under a new id
//	@Tags			stash
//	@Accept			octet-stream
//	@Produce		json
//	@Param			type	query		string	false	"Four-letter chunk type (defaults to chunk.default_type)"
//	@Param			body	body		[]byte	true	"Payload"
//	@Success		200		{object}	StashEntry
//	@Failure		400		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/stash [post]
func (s *Server) handleStashPut(w http.ResponseWriter, r *http.Request) {
	t, err := s.chunkTypeParam(r)
	if err != nil {
		sendChunkError(w, err)
		return
	}

	payload, err := readBody(w, r, s.config.MaxChunkSize)
	if err != nil {
		s.sendBodyError(w, "stash_put", err)
		return
	}

	c, err := chunk.New(t, payload)
	if err != nil {
		s.metrics.RecordChunkOperation("stash_put", 0, err)
		sendChunkError(w, err)
		return
	}

	id, err := s.stash.Put(c)
	s.metrics.RecordChunkOperation("stash_put", len(payload), err)
	if err != nil {
		if chunk.KindOf(err) != 0 {
			sendChunkError(w, err)
			return
		}
		sendError(w, fmt.Sprintf("Failed to stash chunk: %v", err), "", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("stashed chunk", "id", id.String(), "type", t.String(), "length", c.Length())
	sendSuccess(w, stashEntry(id, c))
}

// handleStashList godoc
//
//	@Summary		List stashed chunks
//	@Tags			stash
//	@Produce		json
//	@Success		200	{array}		StashEntry
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/stash [get]
func (s *Server) handleStashList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.stash.List()
	s.metrics.RecordChunkOperation("stash_list", 0, err)
	if err != nil {
		s.logger.Error("failed to list stash", "error", err)
		sendError(w, fmt.Sprintf("Failed to list stash: %v", err), chunkCode(err), http.StatusInternalServerError)
		return
	}

	out := make([]StashEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, stashEntry(e.ID, e.Chunk))
	}
	sendSuccess(w, out)
}

// handleStashGet returns a stashed payload. ?format=json returns the
// summary and ?format=chunk the serialized chunk.
//
//	@Summary		Get a stashed chunk
//	@Description	Return the raw payload, or the summary with ?format=json, or the serialized chunk with ?format=chunk
//	@Tags			stash
//	@Produce		octet-stream,json
//	@Param			id		path		string	true	"Stash id (KSUID)"
//	@Param			format	query		string	false	"json or chunk"
//	@Success		200		{string}	byte
//	@Success		200		{object}	StashEntry
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/stash/{id} [get]
func (s *Server) handleStashGet(w http.ResponseWriter, r *http.Request) {
	id, ok := stashID(w, r)
	if !ok {
		return
	}

	c, err := s.stash.Get(id)
	if err != nil {
		s.metrics.RecordChunkOperation("stash_get", 0, err)
		s.sendStashError(w, id, err)
		return
	}
	s.metrics.RecordChunkOperation("stash_get", int(c.Length()), nil)

	switch r.URL.Query().Get("format") {
	case "json":
		sendSuccess(w, stashEntry(id, c))
	case "chunk":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = c.WriteTo(w)
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Chunk-Crc", strconv.FormatUint(uint64(c.CRC()), 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(c.Data())
	}
}

// handleStashDelete godoc
//
//	@Summary		Delete a stashed chunk
//	@Tags			stash
//	@Produce		json
//	@Param			id	path		string	true	"Stash id (KSUID)"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/stash/{id} [delete]
func (s *Server) handleStashDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := stashID(w, r)
	if !ok {
		return
	}

	err := s.stash.Delete(id)
	s.metrics.RecordChunkOperation("stash_delete", 0, err)
	if err != nil {
		s.sendStashError(w, id, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Chunk deleted successfully"})
}

func (s *Server) chunkTypeParam(r *http.Request) (chunktype.ChunkType, error) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		if s.config.DefaultType.IsZero() {
			return chunktype.ChunkType{}, &chunk.Error{Kind: chunk.KindMalformedTypeTag, Detail: "type query parameter is required"}
		}
		return s.config.DefaultType, nil
	}
	t, err := chunktype.Parse(raw)
	if err != nil {
		return chunktype.ChunkType{}, &chunk.Error{Kind: chunk.KindMalformedTypeTag, Detail: fmt.Sprintf("%q", raw), Err: err}
	}
	return t, nil
}

func (s *Server) sendBodyError(w http.ResponseWriter, operation string, err error) {
	if errors.Is(err, errBodyTooLarge) {
		s.metrics.RecordChunkOperation(operation, 0, chunk.ErrPayloadTooLarge)
		sendError(w, err.Error(), chunk.KindPayloadTooLarge.String(), http.StatusRequestEntityTooLarge)
		return
	}
	s.metrics.RecordChunkOperation(operation, 0, err)
	sendError(w, "Failed to read request body", "", http.StatusBadRequest)
}

func (s *Server) sendStashError(w http.ResponseWriter, id ksuid.KSUID, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sendError(w, "Chunk not found", "", http.StatusNotFound)
	case chunk.KindOf(err) != 0:
		s.logger.Error("stashed chunk failed verification", "id", id.String(), "error", err)
		sendError(w, err.Error(), chunkCode(err), http.StatusInternalServerError)
	default:
		sendError(w, fmt.Sprintf("Stash operation failed: %v", err), "", http.StatusInternalServerError)
	}
}

func stashID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid stash id", "", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// sendChunkError maps chunk failures to HTTP statuses
func sendChunkError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch chunk.KindOf(err) {
	case chunk.KindMalformedTypeTag:
		status = http.StatusBadRequest
	case chunk.KindPayloadTooLarge:
		status = http.StatusRequestEntityTooLarge
	}
	sendError(w, err.Error(), chunkCode(err), status)
}

func chunkCode(err error) string {
	if k := chunk.KindOf(err); k != 0 {
		return k.String()
	}
	return ""
}

// readBody reads the request body, failing with errBodyTooLarge past limit
// bytes. A zero limit reads everything.
func readBody(w http.ResponseWriter, r *http.Request, limit uint32) ([]byte, error) {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, int64(limit))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, limit)
		}
		return nil, err
	}
	return data, nil
}

func chunkLimit(maxPayload uint32) uint32 {
	if maxPayload == 0 || maxPayload > chunk.MaxLength-chunk.Overhead {
		return 0
	}
	return maxPayload + chunk.Overhead
}
