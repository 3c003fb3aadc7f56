package testutil

import (
	"fmt"
	"strings"
)

// Resource ids used by Document.
const (
	FormatID    = "r1"
	InterviewID = "r2"
	BRollID     = "r3"
	MusicID     = "r4"
)

// DocOptions adjusts the document Document wraps around a spine.
type DocOptions struct {
	// Version defaults to "1.11".
	Version string
	// FrameDuration of the timeline format, default "100/2400s" (24 fps).
	FrameDuration string
	// Resources are appended after the standard ones.
	Resources []string
	// ProjectName defaults to "Edit".
	ProjectName string
}

// Document builds a complete FCPXML document whose primary storyline holds
// the given items. Standard resources: r1 a 1080p format, r2 "Interview"
// (one hour, audio and video), r3 "B-Roll" (ten minutes, video), r4
// "Music" (five minutes, audio only).
func Document(items ...string) string {
	return DocumentWith(DocOptions{}, items...)
}

// DocumentWith is Document with options.
func DocumentWith(opts DocOptions, items ...string) string {
	if opts.Version == "" {
		opts.Version = "1.11"
	}
	if opts.FrameDuration == "" {
		opts.FrameDuration = "100/2400s"
	}
	if opts.ProjectName == "" {
		opts.ProjectName = "Edit"
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<!DOCTYPE fcpxml>\n")
	fmt.Fprintf(&b, "<fcpxml version=%q>\n", opts.Version)
	b.WriteString("    <resources>\n")
	fmt.Fprintf(&b, "        <format id=\"r1\" name=\"FFVideoFormat1080p24\" frameDuration=%q width=\"1920\" height=\"1080\"/>\n", opts.FrameDuration)
	b.WriteString(`        <asset id="r2" name="Interview" uid="A1" start="0s" duration="3600s" hasVideo="1" hasAudio="1" format="r1"/>` + "\n")
	b.WriteString(`        <asset id="r3" name="B-Roll" uid="A2" start="0s" duration="600s" hasVideo="1" format="r1"/>` + "\n")
	b.WriteString(`        <asset id="r4" name="Music" uid="A3" start="0s" duration="300s" hasAudio="1"/>` + "\n")
	for _, r := range opts.Resources {
		b.WriteString("        " + r + "\n")
	}
	b.WriteString("    </resources>\n")
	b.WriteString("    <library>\n")
	b.WriteString("        <event name=\"Event\">\n")
	fmt.Fprintf(&b, "            <project name=%q>\n", opts.ProjectName)
	b.WriteString("                <sequence format=\"r1\" tcStart=\"0s\" tcFormat=\"NDF\">\n")
	b.WriteString("                    <spine>\n")
	for _, it := range items {
		b.WriteString("                        " + it + "\n")
	}
	b.WriteString("                    </spine>\n")
	b.WriteString("                </sequence>\n")
	b.WriteString("            </project>\n")
	b.WriteString("        </event>\n")
	b.WriteString("    </library>\n")
	b.WriteString("</fcpxml>\n")
	return b.String()
}

// AssetClip renders an asset-clip element with optional children.
func AssetClip(ref, name, offset, duration, start string, children ...string) string {
	attrs := fmt.Sprintf("ref=%q offset=%q name=%q", ref, offset, name)
	if start != "" {
		attrs += fmt.Sprintf(" start=%q", start)
	}
	attrs += fmt.Sprintf(" duration=%q", duration)
	return element("asset-clip", attrs, children)
}

// LaneClip renders an asset-clip connected on lane.
func LaneClip(ref, name string, lane int, offset, duration, start string, children ...string) string {
	attrs := fmt.Sprintf("ref=%q lane=\"%d\" offset=%q name=%q", ref, lane, offset, name)
	if start != "" {
		attrs += fmt.Sprintf(" start=%q", start)
	}
	attrs += fmt.Sprintf(" duration=%q", duration)
	return element("asset-clip", attrs, children)
}

// Gap renders a gap element.
func Gap(offset, duration string, children ...string) string {
	return element("gap", fmt.Sprintf("name=\"Gap\" offset=%q duration=%q", offset, duration), children)
}

// Transition renders a transition element.
func Transition(offset, duration string) string {
	return fmt.Sprintf("<transition name=\"Cross Dissolve\" offset=%q duration=%q/>", offset, duration)
}

// Marker renders a marker; completed is omitted when empty.
func Marker(start, value, completed string) string {
	if completed != "" {
		return fmt.Sprintf("<marker start=%q duration=\"100/2400s\" value=%q completed=%q/>", start, value, completed)
	}
	return fmt.Sprintf("<marker start=%q duration=\"100/2400s\" value=%q/>", start, value)
}

// ChapterMarker renders a chapter marker.
func ChapterMarker(start, value string) string {
	return fmt.Sprintf("<chapter-marker start=%q duration=\"100/2400s\" value=%q posterOffset=\"0s\"/>", start, value)
}

// ThreeClips is the A/B/C spine used across packages: three 30 second clips
// of the Interview asset laid out back to back.
func ThreeClips() string {
	return Document(
		AssetClip(InterviewID, "A", "0s", "30s", "0s"),
		AssetClip(InterviewID, "B", "30s", "30s", "100s"),
		AssetClip(InterviewID, "C", "60s", "30s", "200s"),
	)
}

func element(name, attrs string, children []string) string {
	if len(children) == 0 {
		return "<" + name + " " + attrs + "/>"
	}
	return "<" + name + " " + attrs + ">" + strings.Join(children, "") + "</" + name + ">"
}
