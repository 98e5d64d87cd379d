package engine

import (
	"fmt"

	"github.com/concourse/pipelinex/internal/model"
)

// resolvedScript is the script path (relative to a workspace's
// pipelines/ directory) and extra environment to inject for a stage,
// per §4.9.2.
type resolvedScript struct {
	RelPath string
	Env     map[string]string
}

// resolveScript implements §4.9.2's script-resolution rules: SECRETS
// dispatches on secret_scan_mode, SAST optionally dispatches to the
// custom-command path, and every other stage uses
// <framework>-<build_tool>/<stage_lower>.sh.
func resolveScript(stage model.Stage, stack model.Stack, pipeline model.Pipeline) (resolvedScript, error) {
	switch stage {
	case model.StageSecrets:
		switch pipeline.SecretScanMode {
		case model.SecretScanModeGit:
			return resolvedScript{RelPath: "global/secrets-git.sh"}, nil
		case model.SecretScanModeCustom:
			return customScript(model.StageSecrets, pipeline.SecretCustom)
		default:
			return resolvedScript{RelPath: "global/secrets-dir.sh"}, nil
		}

	case model.StageSast:
		if pipeline.SastMode == model.SastModeCustom {
			return customScript(model.StageSast, pipeline.SastCustom)
		}
		return stackScript(stage, stack)

	default:
		return stackScript(stage, stack)
	}
}

func customScript(stage model.Stage, cmd *model.CustomCommand) (resolvedScript, error) {
	if cmd == nil {
		return resolvedScript{}, fmt.Errorf("engine: %s custom mode requires a custom command", stage)
	}
	return resolvedScript{
		RelPath: "global/custom.sh",
		Env: map[string]string{
			"STAGE":       string(stage),
			"INSTALL_CMD": cmd.InstallCmd,
			"TOOL_CMD":    cmd.ToolCmd,
			"LOG_EXT":     cmd.LogExt,
		},
	}, nil
}

func stackScript(stage model.Stage, stack model.Stack) (resolvedScript, error) {
	if stack.Framework == "" || stack.BuildTool == "" {
		return resolvedScript{}, fmt.Errorf("engine: unsupported stack: %s/%s", stack.Framework, stack.BuildTool)
	}
	return resolvedScript{
		RelPath: fmt.Sprintf("%s-%s/%s.sh", stack.Framework, stack.BuildTool, stage.Lower()),
	}, nil
}
