package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	compose "github.com/compose-spec/compose-go/v2/types"
)

const defaultProjectName = "vivarium"

// LoadComposeSpec reads a Compose file and maps one service to a Spec.
// When service is empty the file must define exactly one service.
func LoadComposeSpec(ctx context.Context, path, service string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read compose file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Spec{}, fmt.Errorf("resolve compose file path: %w", err)
	}

	details := compose.ConfigDetails{
		WorkingDir: filepath.Dir(abs),
		ConfigFiles: []compose.ConfigFile{
			{Filename: abs, Content: data},
		},
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(defaultProjectName, true)
	})
	if err != nil {
		return Spec{}, fmt.Errorf("parse compose file: %w", err)
	}

	svc, err := pickService(project, service, path)
	if err != nil {
		return Spec{}, err
	}
	return specFromService(project.Name, svc, filepath.Dir(abs)), nil
}

func pickService(project *compose.Project, service, path string) (compose.ServiceConfig, error) {
	if len(project.Services) == 0 {
		return compose.ServiceConfig{}, fmt.Errorf("compose file %s has no services", path)
	}
	if service == "" {
		if len(project.Services) != 1 {
			return compose.ServiceConfig{}, fmt.Errorf(
				"compose file %s defines %d services, name one explicitly", path, len(project.Services))
		}
		for _, svc := range project.Services {
			return svc, nil
		}
	}
	svc, ok := project.Services[service]
	if !ok {
		return compose.ServiceConfig{}, fmt.Errorf("service %q not found in %s", service, path)
	}
	return svc, nil
}

func specFromService(projectName string, svc compose.ServiceConfig, baseDir string) Spec {
	name := strings.TrimSpace(svc.ContainerName)
	if name == "" {
		name = projectName + "-" + svc.Name
	}

	spec := Spec{
		Name:          name,
		Image:         svc.Image,
		Command:       []string(svc.Command),
		Environment:   flattenEnvironment(svc.Environment),
		Ports:         mapPorts(svc.Ports),
		Mounts:        mapMounts(svc.Volumes, baseDir),
		NetworkMode:   svc.NetworkMode,
		RestartPolicy: restartPolicy(svc),
	}

	if svc.Build != nil {
		buildCtx := svc.Build.Context
		if buildCtx != "" && !filepath.IsAbs(buildCtx) {
			buildCtx = filepath.Join(baseDir, buildCtx)
		}
		spec.BuildContext = buildCtx
		spec.Dockerfile = svc.Build.Dockerfile
	}

	if svc.Deploy != nil && svc.Deploy.Resources.Limits != nil {
		limits := svc.Deploy.Resources.Limits
		spec.CPULimit = float64(limits.NanoCPUs.Value())
		spec.MemoryLimit = int64(limits.MemoryBytes)
	}

	return spec
}

func flattenEnvironment(env compose.MappingWithEquals) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		value := ""
		if p := env[key]; p != nil {
			value = *p
		}
		out = append(out, key+"="+value)
	}
	return out
}

func mapPorts(ports []compose.ServicePortConfig) []PortMapping {
	if len(ports) == 0 {
		return nil
	}
	out := make([]PortMapping, 0, len(ports))
	for _, p := range ports {
		protocol := strings.ToLower(strings.TrimSpace(p.Protocol))
		if protocol == "" {
			protocol = "tcp"
		}
		containerPort := uint16(0)
		if p.Target <= uint32(^uint16(0)) {
			containerPort = uint16(p.Target)
		}
		out = append(out, PortMapping{
			HostPort:      parsePublishedPort(p.Published),
			ContainerPort: containerPort,
			Protocol:      protocol,
		})
	}
	return out
}

func parsePublishedPort(published string) uint16 {
	published = strings.TrimSpace(published)
	if published == "" {
		return 0
	}
	n, err := strconv.ParseUint(published, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}

func mapMounts(volumes []compose.ServiceVolumeConfig, baseDir string) []Mount {
	if len(volumes) == 0 {
		return nil
	}
	out := make([]Mount, 0, len(volumes))
	for _, v := range volumes {
		if strings.TrimSpace(v.Target) == "" {
			continue
		}
		source := v.Source
		if source != "" && !filepath.IsAbs(source) {
			source = filepath.Join(baseDir, source)
		}
		out = append(out, Mount{
			Source:   source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}
	return out
}

func restartPolicy(svc compose.ServiceConfig) string {
	if restart := strings.TrimSpace(svc.Restart); restart != "" {
		return restart
	}
	if svc.Deploy != nil && svc.Deploy.RestartPolicy != nil {
		return strings.TrimSpace(svc.Deploy.RestartPolicy.Condition)
	}
	return ""
}
