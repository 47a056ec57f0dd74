package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// SpecHashLabel is the container label carrying the spec hash, so build
// idempotency survives process restarts.
const SpecHashLabel = "vivarium.spec-hash"

// Spec describes the sandbox container. It is immutable once the
// container is created; changing it requires remove + rebuild.
type Spec struct {
	Name          string        `json:"name"`
	Image         string        `json:"image,omitempty"`
	BuildContext  string        `json:"build_context,omitempty"`
	Dockerfile    string        `json:"dockerfile,omitempty"`
	Command       []string      `json:"command,omitempty"`
	Environment   []string      `json:"environment,omitempty"` // KEY=VALUE, sorted
	Ports         []PortMapping `json:"ports,omitempty"`
	Mounts        []Mount       `json:"mounts,omitempty"`
	NetworkMode   string        `json:"network_mode,omitempty"`
	CPULimit      float64       `json:"cpu_limit,omitempty"`
	MemoryLimit   int64         `json:"memory_limit,omitempty"`
	RestartPolicy string        `json:"restart_policy,omitempty"`
}

// PortMapping publishes a container port on the host.
type PortMapping struct {
	HostPort      uint16 `json:"host_port"`
	ContainerPort uint16 `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// Mount binds a host path into the container.
type Mount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// Validate checks the fields required to create a container.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("spec: container name is required")
	}
	if strings.TrimSpace(s.Image) == "" && strings.TrimSpace(s.BuildContext) == "" {
		return fmt.Errorf("spec: image or build context is required")
	}
	seen := make(map[string]struct{}, len(s.Environment))
	for _, kv := range s.Environment {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("spec: malformed environment entry %q", kv)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("spec: duplicate environment key %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Hash returns the canonical spec hash: SHA-256 over the normalized
// JSON encoding, stable across environment and mount ordering.
func (s Spec) Hash() string {
	payload, err := json.Marshal(s.normalized())
	if err != nil {
		// Spec contains only marshalable field types.
		panic(fmt.Sprintf("marshal spec: %v", err))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s Spec) normalized() Spec {
	out := s
	out.Command = cloneNonEmpty(s.Command)
	out.Environment = cloneNonEmpty(s.Environment)
	slices.Sort(out.Environment)

	if len(s.Ports) > 0 {
		out.Ports = make([]PortMapping, len(s.Ports))
		copy(out.Ports, s.Ports)
		for i := range out.Ports {
			if out.Ports[i].Protocol == "" {
				out.Ports[i].Protocol = "tcp"
			}
		}
		sort.Slice(out.Ports, func(i, j int) bool {
			if out.Ports[i].HostPort != out.Ports[j].HostPort {
				return out.Ports[i].HostPort < out.Ports[j].HostPort
			}
			if out.Ports[i].ContainerPort != out.Ports[j].ContainerPort {
				return out.Ports[i].ContainerPort < out.Ports[j].ContainerPort
			}
			return out.Ports[i].Protocol < out.Ports[j].Protocol
		})
	} else {
		out.Ports = nil
	}

	if len(s.Mounts) > 0 {
		out.Mounts = make([]Mount, len(s.Mounts))
		copy(out.Mounts, s.Mounts)
		sort.Slice(out.Mounts, func(i, j int) bool {
			if out.Mounts[i].Source != out.Mounts[j].Source {
				return out.Mounts[i].Source < out.Mounts[j].Source
			}
			return out.Mounts[i].Target < out.Mounts[j].Target
		})
	} else {
		out.Mounts = nil
	}

	return out
}

func cloneNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
