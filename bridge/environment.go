package bridge

import (
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	emucore "github.com/user-none/retrohost/api"
)

// CoreOption is a configurable variable a core declared.
type CoreOption struct {
	Key         string
	Description string
	Values      []string // First entry is the default
}

// Default returns the value the core uses when the host sets none.
func (o CoreOption) Default() string {
	if len(o.Values) == 0 {
		return ""
	}
	return o.Values[0]
}

// ParseOption splits a "Description; first|second|third" declaration.
func ParseOption(key, decl string) CoreOption {
	opt := CoreOption{Key: key}
	desc, values, ok := strings.Cut(decl, ";")
	opt.Description = strings.TrimSpace(desc)
	if !ok {
		return opt
	}
	for _, v := range strings.Split(strings.TrimSpace(values), "|") {
		if v != "" {
			opt.Values = append(opt.Values, v)
		}
	}
	return opt
}

// SetVariable sets a core option value. The core sees the change the next
// time it polls for variable updates.
func (s *Session) SetVariable(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.variables[key]; ok && cur == value {
		return
	}
	s.variables[key] = value
	s.varsUpdated = true
}

// Variables returns a copy of the current option values.
func (s *Session) Variables() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.variables))
	for k, v := range s.variables {
		out[k] = v
	}
	return out
}

// CoreOptions returns the options the core declared.
func (s *Session) CoreOptions() []CoreOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CoreOption, len(s.options))
	for i, o := range s.options {
		o.Values = slices.Clone(o.Values)
		out[i] = o
	}
	return out
}

// SetVariables implements emucore.Environment. A new declaration list
// replaces the previous one; values already set are kept.
func (s *Session) SetVariables(vars []emucore.Variable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.options = s.options[:0]
	for _, v := range vars {
		opt := ParseOption(v.Key, v.Value)
		s.options = append(s.options, opt)
		if _, ok := s.variables[v.Key]; !ok && len(opt.Values) > 0 {
			s.variables[v.Key] = opt.Default()
		}
	}
	s.log.Debug("core declared options", zap.Int("count", len(vars)))
}

// Variable implements emucore.Environment.
func (s *Session) Variable(key string) (string, bool) {
	s.mu.Lock()
	v, ok := s.variables[key]
	s.mu.Unlock()
	s.log.Debug("core variable", zap.String("key", key), zap.String("value", v), zap.Bool("found", ok))
	return v, ok
}

// VariableUpdated implements emucore.Environment. It reports true once
// after the host changed a value.
func (s *Session) VariableUpdated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.varsUpdated
	s.varsUpdated = false
	return updated
}

// SetPixelFormat implements emucore.Environment.
func (s *Session) SetPixelFormat(format emucore.PixelFormat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reason string
	switch {
	case !format.Valid():
		reason = "unknown format"
	case s.firstFrame && format != s.pixelFormat:
		reason = "format is fixed once frames are delivered"
	}
	if reason != "" {
		s.diag.PixelFormatError = &UnsupportedPixelFormatError{Format: format, Reason: reason}
		s.log.Warn("refused pixel format", zap.Stringer("format", format), zap.String("reason", reason))
		return false
	}

	s.pixelFormat = format
	s.log.Debug("pixel format", zap.Stringer("format", format))
	return true
}

// SetGeometry implements emucore.Environment.
func (s *Session) SetGeometry(geometry emucore.GameGeometry) {
	s.mu.Lock()
	s.avInfo.Geometry = geometry
	s.mu.Unlock()
	s.frames.Invalidate()
	s.log.Debug("geometry changed",
		zap.Int("width", geometry.BaseWidth),
		zap.Int("height", geometry.BaseHeight),
		zap.Float64("aspect", geometry.DisplayAspect()))
}

// SetSystemAVInfo implements emucore.Environment.
func (s *Session) SetSystemAVInfo(info emucore.SystemAVInfo) {
	s.log.Info("core changed AV info", zap.Stringer("av", info))
	s.applyAVInfo(info)
}

// LogInterface implements emucore.Environment.
func (s *Session) LogInterface() (emucore.LogFunc, bool) {
	if s.front.Log == nil {
		return nil, false
	}
	log := s.front.Log
	return func(level emucore.LogLevel, msg string) {
		log(level, strings.TrimRight(msg, "\r\n"))
	}, true
}

// SystemDirectory implements emucore.Environment.
func (s *Session) SystemDirectory() (string, bool) {
	return s.directory("system", s.opts.SystemDir, &s.systemReady)
}

// SaveDirectory implements emucore.Environment.
func (s *Session) SaveDirectory() (string, bool) {
	return s.directory("save", s.opts.SaveDir, &s.saveReady)
}

func (s *Session) directory(name, dir string, ready *bool) (string, bool) {
	if dir == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !*ready {
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.log.Warn("failed to create directory", zap.String("kind", name), zap.String("path", dir), zap.Error(err))
			return "", false
		}
		*ready = true
	}
	return dir, true
}

// CanDupe implements emucore.Environment. A nil frame repeats the last one.
func (s *Session) CanDupe() bool { return true }

// SetSupportAchievements implements emucore.Environment.
func (s *Session) SetSupportAchievements(supported bool) {
	s.mu.Lock()
	s.diag.SupportsAchievements = supported
	s.mu.Unlock()
}

// SetPerformanceLevel implements emucore.Environment.
func (s *Session) SetPerformanceLevel(level uint) {
	s.mu.Lock()
	s.diag.PerformanceLevel = level
	s.mu.Unlock()
}

// SetInputDescriptors implements emucore.Environment.
func (s *Session) SetInputDescriptors(descriptors []emucore.InputDescriptor) {
	s.mu.Lock()
	s.diag.InputDescriptors = slices.Clone(descriptors)
	s.mu.Unlock()
}

// SetControllerInfo implements emucore.Environment.
func (s *Session) SetControllerInfo(info []emucore.ControllerInfo) {
	s.mu.Lock()
	s.diag.ControllerInfo = slices.Clone(info)
	s.mu.Unlock()
}

// SetMemoryMaps implements emucore.Environment.
func (s *Session) SetMemoryMaps(descriptors int) {
	s.mu.Lock()
	s.diag.MemoryMapDescriptors = descriptors
	s.mu.Unlock()
}

// Shutdown implements emucore.Environment. The request is only recorded;
// the host decides when to close the session.
func (s *Session) Shutdown() {
	s.mu.Lock()
	s.diag.ShutdownRequested = true
	s.mu.Unlock()
	s.log.Info("core requested shutdown")
}

// UnsupportedCommand implements emucore.Environment.
func (s *Session) UnsupportedCommand(cmd uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.unsupported[cmd]; seen {
		return
	}
	s.unsupported[cmd] = struct{}{}
	s.diag.UnsupportedCommands = append(s.diag.UnsupportedCommands, cmd)
	s.log.Debug("unsupported environment command", zap.Uint("cmd", cmd))
}
