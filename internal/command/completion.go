package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for pubdata
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_pubdata()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "get meta ls clear completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--color -c --filter -f --output -o --sort -s --titles -t --tldr"

    case "$cmd" in
        get)
      local opts="$common --limit -l --jobs -j"
            ;;
        meta)
      local opts="$common --query -q"
            ;;
        ls)
      local opts="$common"
            ;;
        clear)
      local opts="$common --raw --older-than"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi

  if [[ "$cur" == -* ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  # Collection names come first for every resolver command.
  if [[ ${COMP_CWORD} -eq 2 && "$cmd" != "completion" ]]; then
    COMPREPLY=( $(compgen -W "$(pubdata ls 2>/dev/null | awk '{print $1}')" -- "$cur") )
    return 0
  fi
  return 0
}

complete -F _pubdata pubdata
`

const zshCompletionScript = `#compdef pubdata

_pubdata() {
  local -a cmds
  cmds=(
    'get:resolve data objects'
    'meta:show catalog metadata'
    'ls:list collections or keys'
    'clear:remove cached objects'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  '(-s --sort)'{-s,--sort}'[sort fields]:fields'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'pubdata commands' cmds
    return
  fi

  local -a collections
  collections=(${(f)"$(pubdata ls 2>/dev/null | awk '{print $1}')"})

  local curcontext="$curcontext" state line
  case $words[2] in
    get)
      _arguments -C \
        $common \
        '(-l --limit)'{-l,--limit}'[rows to preview]:limit' \
        '(-j --jobs)'{-j,--jobs}'[parallel keys]:jobs' \
        '1:collection:($collections)' \
        '*:key'
      ;;
    meta)
      _arguments -C \
        $common \
        '(-q --query)'{-q,--query}'[gjson path]:query' \
        '1:collection:($collections)' \
        '2::key'
      ;;
    ls)
      _arguments -C \
        $common \
        '1::collection:($collections)' \
        '2::pattern'
      ;;
    clear)
      _arguments -C \
        $common \
        '--raw[also remove raw downloads]' \
        '--older-than[age in hours]:hours' \
        '1::collection:($collections)' \
        '2::pattern'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _pubdata pubdata
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: pubdata completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "pubdata completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
