package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"

	"regcache/internal/engine"
	"regcache/internal/memory"
	"regcache/internal/trace"
)

type keyValueBody struct {
	Value uint64 `json:"value"`
}

type keyValueReply struct {
	Key   uint64 `json:"key"`
	Value uint64 `json:"value"`
	Hit   bool   `json:"hit"`
}

type statusReply struct {
	StatusWord uint64 `json:"status_word"`
	Done       bool   `json:"done"`
	Hit        bool   `json:"hit"`
	Error      bool   `json:"error"`
	Adapter    string `json:"adapter_state"`
	Dispatcher string `json:"dispatcher_state"`
	Occupied   int    `json:"occupied"`
	Entries    int    `json:"entries"`
	Ticks      uint64 `json:"ticks"`
}

type busBody struct {
	Op   string `json:"op"`
	Addr int    `json:"addr"`
	Data uint64 `json:"data"`
}

type busReply struct {
	Addr    int    `json:"addr"`
	Data    uint64 `json:"data,omitempty"`
	Granted bool   `json:"granted"`
}

type errorReply struct {
	Message string `json:"message"`
}

func (s *Server) putKey(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(w)
	key, ok := s.parseKey(w, r)
	if !ok {
		return
	}
	var body keyValueBody
	if !decodeBody(w, r, &body) {
		return
	}
	if max := memory.WidthMask(s.cache.Config().ValueBits); body.Value > max {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("value %d exceeds configured width", body.Value))
		return
	}

	s.mu.Lock()
	before := s.cache.Ticks()
	err := s.cache.Upsert(key, body.Value)
	ticks := s.cache.Ticks() - before
	s.mu.Unlock()

	s.record(trace.Record{ID: reqID, Op: "UPSERT", Key: key, Value: body.Value, Err: err != nil, Ticks: ticks})

	switch {
	case errors.Is(err, engine.ErrCapacityExceeded):
		writeError(w, http.StatusInsufficientStorage, "capacity exceeded")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, keyValueReply{Key: key, Value: body.Value, Hit: true})
	}
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(w)
	key, ok := s.parseKey(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	before := s.cache.Ticks()
	value, hit, err := s.cache.Get(key)
	ticks := s.cache.Ticks() - before
	s.mu.Unlock()

	s.record(trace.Record{ID: reqID, Op: "GET", Key: key, Value: value, Hit: hit, Err: err != nil, Ticks: ticks})

	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	case !hit:
		writeError(w, http.StatusNotFound, "key not found")
	default:
		writeJSON(w, http.StatusOK, keyValueReply{Key: key, Value: value, Hit: true})
	}
}

func (s *Server) deleteKey(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(w)
	key, ok := s.parseKey(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	before := s.cache.Ticks()
	err := s.cache.Delete(key)
	ticks := s.cache.Ticks() - before
	s.mu.Unlock()

	s.record(trace.Record{ID: reqID, Op: "DELETE", Key: key, Hit: err == nil, Err: err != nil, Ticks: ticks})

	switch {
	case errors.Is(err, engine.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "key not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	requestID(w)

	s.mu.Lock()
	lay := s.cache.Layout()
	st := s.cache.BusRead(lay.Status())
	reply := statusReply{
		StatusWord: st,
		Done:       st&1 != 0,
		Hit:        st&2 != 0,
		Error:      st&4 != 0,
		Adapter:    s.cache.AdapterState().String(),
		Dispatcher: s.cache.DispatcherState().String(),
		Occupied:   s.cache.Occupied(),
		Entries:    s.cache.Config().Entries,
		Ticks:      s.cache.Ticks(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, reply)
}

// busTransaction is the register-level debug path: one read or write beat
// against the register file. Every beat also advances the clock one tick,
// the way a transaction on the real bus would, so a requester can poll
// the status register to completion over raw reads alone.
func (s *Server) busTransaction(w http.ResponseWriter, r *http.Request) {
	requestID(w)
	var body busBody
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch body.Op {
	case "read":
		s.cache.Tick()
		data := s.cache.BusRead(body.Addr)
		writeJSON(w, http.StatusOK, busReply{Addr: body.Addr, Data: data, Granted: true})
	case "write":
		granted := s.cache.BusWrite(body.Addr, body.Data)
		s.cache.Tick()
		writeJSON(w, http.StatusOK, busReply{Addr: body.Addr, Granted: granted})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown bus op %q", body.Op))
	}
}

// parseKey reads the key path parameter. Key 0 is rejected up front: it
// is the vacancy sentinel and can never be stored, so letting it through
// would only produce a confusing guaranteed miss.
func (s *Server) parseKey(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "key")
	key, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad key %q", raw))
		return 0, false
	}
	if key == 0 {
		writeError(w, http.StatusBadRequest, "key 0 is reserved as the vacancy sentinel")
		return 0, false
	}
	if max := memory.WidthMask(s.cache.Config().KeyBits); key > max {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("key %d exceeds configured width", key))
		return 0, false
	}
	return key, true
}

func (s *Server) record(rec trace.Record) {
	if s.rec == nil {
		return
	}
	if err := s.rec.Append(rec); err != nil {
		log.Printf("trace append failed: %v", err)
	}
}

func requestID(w http.ResponseWriter) string {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	return id
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return false
	}
	if err := sonnet.Unmarshal(raw, dst); err != nil {
		writeError(w, http.StatusBadRequest, "decode body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorReply{Message: msg})
}
