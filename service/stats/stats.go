package stats

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/segmentio/encoding/json"
)

const (
	MsgParseErrKey      = "msg_parse"
	UnknownMethodErrKey = "unknown_method"
	InvalidArgsErrKey   = "invalid_args"
	WriteReplyErrKey    = "write_reply"
)

type (
	JSONAtomicI64 struct {
		atomic.Int64
	}
	MethodStat struct {
		Method string        `json:"name"`
		Count  JSONAtomicI64 `json:"count"`
	}
	MethodStatList struct {
		Data []*MethodStat `json:"methods"`
		mu   sync.Mutex
	}
	ServerStats struct {
		Remotes     []string                  `json:"remotes"`
		Methods     *MethodStatList           `json:"stats"`
		ErrorMap    map[string]*JSONAtomicI64 `json:"errors"`
		BytesHashed JSONAtomicI64             `json:"bytes_hashed"`
		rwMu        sync.RWMutex
	}
)

func (f *JSONAtomicI64) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%v", f.Load())), nil
}

func NewMethodStat(api string) *MethodStat {
	return &MethodStat{Method: api}
}

func (p *MethodStat) String() string {
	return fmt.Sprintf("\"%v\": %v", p.Method, p.Count.Load())
}

func NewMethodStatList() *MethodStatList {
	return &MethodStatList{Data: make([]*MethodStat, 0)}
}

func (msl *MethodStatList) String() string {
	msl.mu.Lock()
	defer msl.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "_len_: %v\n", len(msl.Data))
	for _, m := range msl.Data {
		sb.WriteString("    " + m.String() + "\n")
	}
	return sb.String()
}

// Inc counts one call of method, keeping the list sorted by name.
func (msl *MethodStatList) Inc(method string) {
	msl.mu.Lock()
	defer msl.mu.Unlock()
	ind, found := slices.BinarySearchFunc(msl.Data, method, func(r *MethodStat, target string) int {
		return strings.Compare(r.Method, target)
	})
	if found {
		msl.Data[ind].Count.Add(1)
		return
	}
	apiStat := NewMethodStat(method)
	apiStat.Count.Add(1)
	msl.Data = slices.Insert(msl.Data, ind, apiStat)
}

// Count returns how often method was called.
func (msl *MethodStatList) Count(method string) int64 {
	msl.mu.Lock()
	defer msl.mu.Unlock()
	ind, found := slices.BinarySearchFunc(msl.Data, method, func(r *MethodStat, target string) int {
		return strings.Compare(r.Method, target)
	})
	if !found {
		return 0
	}
	return msl.Data[ind].Count.Load()
}

func (msl *MethodStatList) MarshalJSON() ([]byte, error) {
	msl.mu.Lock()
	defer msl.mu.Unlock()
	return json.Marshal(msl.Data)
}

func NewServerStats() *ServerStats {
	errorMap := map[string]*JSONAtomicI64{
		MsgParseErrKey:      {},
		UnknownMethodErrKey: {},
		InvalidArgsErrKey:   {},
		WriteReplyErrKey:    {},
	}
	return &ServerStats{
		Remotes:  make([]string, 0),
		Methods:  NewMethodStatList(),
		ErrorMap: errorMap,
	}
}

func (s *ServerStats) String() string {
	s.rwMu.RLock()
	defer s.rwMu.RUnlock()
	s1 := fmt.Sprintf("Remote Conns: %v\n", s.Remotes)
	s2 := "Stats: \n    " + s.Methods.String()
	keys := make([]string, 0, len(s.ErrorMap))
	for k := range s.ErrorMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s3 := "Errors: {"
	for _, k := range keys {
		s3 += fmt.Sprintf("\"%v\": %v, ", k, s.ErrorMap[k].Load())
	}
	s3 += "}\n"
	return s1 + s2 + s3 + fmt.Sprintf("Bytes hashed: %v\n", s.BytesHashed.Load())
}

// JSON renders a snapshot of the counters.
func (s *ServerStats) JSON() (string, error) {
	s.rwMu.RLock()
	defer s.rwMu.RUnlock()
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *ServerStats) AddRemote(remote string) {
	s.rwMu.Lock()
	defer s.rwMu.Unlock()
	ind, _ := slices.BinarySearch(s.Remotes, remote)
	s.Remotes = slices.Insert(s.Remotes, ind, remote)
}

func (s *ServerStats) DelRemote(remote string) {
	s.rwMu.Lock()
	defer s.rwMu.Unlock()
	ind, found := slices.BinarySearch(s.Remotes, remote)
	if !found {
		return
	}
	s.Remotes = slices.Delete(s.Remotes, ind, ind+1)
}

func (s *ServerStats) NumRemotes() int {
	s.rwMu.RLock()
	defer s.rwMu.RUnlock()
	return len(s.Remotes)
}

func (s *ServerStats) AddMethodStat(method string) {
	s.Methods.Inc(method)
}

func (s *ServerStats) AddBytes(n int) {
	s.BytesHashed.Add(int64(n))
}

func (s *ServerStats) IncErrStat(key string) {
	if c, ok := s.ErrorMap[key]; ok {
		c.Add(1)
	}
}

func (s *ServerStats) ErrStat(key string) int64 {
	if c, ok := s.ErrorMap[key]; ok {
		return c.Load()
	}
	return 0
}

func (s *ServerStats) IncMsgParseErr() {
	s.IncErrStat(MsgParseErrKey)
}

func (s *ServerStats) IncUnknownMethodErr() {
	s.IncErrStat(UnknownMethodErrKey)
}

func (s *ServerStats) IncInvalidArgsErr() {
	s.IncErrStat(InvalidArgsErrKey)
}

func (s *ServerStats) IncWriteReplyErr() {
	s.IncErrStat(WriteReplyErrKey)
}
