// This file contains the gohcl schema of manifest files.

package manifest

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a manifest file.
type fileRoot struct {
	Categories []*categoryBlock `hcl:"category,block"`
	Nodes      []*nodeBlock     `hcl:"node,block"`
	Properties []*propertyBlock `hcl:"property,block"`
	Events     []*eventBlock    `hcl:"event,block"`
	Remain     hcl.Body         `hcl:",remain"`
}

type categoryBlock struct {
	Path     string `hcl:"path,label"`
	Owner    string `hcl:"owner,optional"`
	Icon     string `hcl:"icon,optional"`
	Priority *int   `hcl:"priority,optional"`
}

type nodeBlock struct {
	Member      string             `hcl:"member,label"`
	MenuPath    string             `hcl:"menu_path"`
	Flow        *bool              `hcl:"flow,optional"`
	Icon        string             `hcl:"icon,optional"`
	Color       string             `hcl:"color,optional"`
	Tooltip     string             `hcl:"tooltip,optional"`
	Category    string             `hcl:"category,optional"`
	Searchable  *bool              `hcl:"searchable,optional"`
	Keywords    []string           `hcl:"keywords,optional"`
	Inputs      []*inputBlock      `hcl:"input,block"`
	Outputs     []*outputBlock     `hcl:"output,block"`
	FlowOutputs []*flowOutputBlock `hcl:"flow_output,block"`
	Constraints []*constraintBlock `hcl:"constraint,block"`
}

type inputBlock struct {
	Param       string         `hcl:"param,label"`
	DisplayName string         `hcl:"display_name,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Hidden      bool           `hcl:"hidden,optional"`
	Tooltip     string         `hcl:"tooltip,optional"`
	Min         *float64       `hcl:"min,optional"`
	Max         *float64       `hcl:"max,optional"`
}

type outputBlock struct {
	Param       string `hcl:"param,label"`
	DisplayName string `hcl:"display_name,optional"`
	Tooltip     string `hcl:"tooltip,optional"`
}

type flowOutputBlock struct {
	Name    string `hcl:"name,label"`
	Tooltip string `hcl:"tooltip,optional"`
}

type constraintBlock struct {
	Param string         `hcl:"param,label"`
	Types hcl.Expression `hcl:"types"`
}

type propertyBlock struct {
	Member   string `hcl:"member,label"`
	MenuPath string `hcl:"menu_path"`
	ReadOnly bool   `hcl:"read_only,optional"`
	Icon     string `hcl:"icon,optional"`
	Tooltip  string `hcl:"tooltip,optional"`
}

type eventBlock struct {
	Member    string         `hcl:"member,label"`
	MenuPath  string         `hcl:"menu_path"`
	Icon      string         `hcl:"icon,optional"`
	Tooltip   string         `hcl:"tooltip,optional"`
	Networked bool           `hcl:"networked,optional"`
	Outputs   []*outputBlock `hcl:"output,block"`
}
