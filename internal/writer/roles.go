package writer

import "github.com/roach88/spine/internal/ir"

// RoleResult reports the roles a clip ends up with.
type RoleResult struct {
	ClipID    string `json:"clip_id"`
	AudioRole string `json:"audio_role"`
	VideoRole string `json:"video_role"`
}

// AssignRole sets the audio and/or video role of any clip. An empty value
// leaves that role alone. Titles and video elements carry a single role
// attribute, which takes the video role; audio elements take the audio one.
func (e *Editor) AssignRole(ref, audio, video string) (RoleResult, error) {
	audio = SanitizeName(audio, e.text.Role)
	video = SanitizeName(video, e.text.Role)
	if audio == "" && video == "" {
		return RoleResult{}, ir.Formatf("assign a role needs an audio or a video role")
	}
	var res RoleResult
	err := e.apply("assign_role", func(tl *ir.Timeline) error {
		c, _, err := tl.Index().LookupClip(ref)
		if err != nil {
			return err
		}
		switch c.Kind {
		case ir.TagTitle, ir.TagVideo:
			if video == "" {
				return ir.Structuralf("%s elements only take a video role", c.Kind).WithSubject(c.Label())
			}
			c.Role = video
			res = RoleResult{ClipID: c.ID, VideoRole: c.Role}
		case ir.TagAudio:
			if audio == "" {
				return ir.Structuralf("audio elements only take an audio role").WithSubject(c.Label())
			}
			c.Role = audio
			res = RoleResult{ClipID: c.ID, AudioRole: c.Role}
		default:
			if audio != "" {
				c.AudioRole = audio
			}
			if video != "" {
				c.VideoRole = video
			}
			res = RoleResult{ClipID: c.ID, AudioRole: c.AudioRole, VideoRole: c.VideoRole}
		}
		return nil
	})
	return res, err
}
