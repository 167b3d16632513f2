package services

import (
	"context"
	"fmt"
	"strings"

	"petal-chatbot-backend/models"
	"petal-chatbot-backend/utils"
)

const crisisSystemPrompt = "You are Petal providing crisis intervention. Be deeply empathetic, warm, and caring. Acknowledge their specific pain and struggle. Always include crisis numbers. Be urgent but not panicked. Show you truly understand their suffering."

const hotlineLine = "\n\n📞 Please call 988 or text HOME to 741741 right now for immediate support."

// CrisisService synthesizes crisis responses. It tries a personalized
// response from the generation backend first and falls back to curated
// templates per subtype; either way the output carries both hotline numbers.
type CrisisService struct {
	ai     Completer
	logger utils.EventLogger
}

func NewCrisisService(ai Completer, logger utils.EventLogger) *CrisisService {
	if logger == nil {
		logger = utils.NopLogger{}
	}
	return &CrisisService{ai: ai, logger: logger}
}

// crisisGuidance is the per-subtype instruction block for personalized
// responses. Method-seeking instructions explicitly forbid providing methods.
var crisisGuidance = map[models.CrisisType]string{
	models.CrisisViolenceOthers: `They're having violent thoughts toward others. Respond with:
1. Express deep concern and empathy for their struggle
2. Acknowledge how overwhelming these thoughts must feel
3. Urgent crisis resources (988, 741741)
4. Emphasize they're brave for reaching out and don't have to handle this alone
5. Around 200 words, very caring and empathetic tone`,

	models.CrisisMethodSeeking: `They're asking for ways/methods to harm themselves. Respond with:
1. Express deep empathy for their pain without providing methods
2. Acknowledge how desperate they must be feeling right now
3. Urgent crisis resources (988, 741741)
4. Emphasize these feelings can change and they matter deeply
5. Around 200 words, very caring and empathetic tone`,

	models.CrisisOverdoseReport: `They may have taken something harmful. Respond with:
1. Express immediate concern and empathy for their crisis
2. Urge them to call 911 if they took something harmful
3. Crisis resources (988, 741741) for ongoing support
4. Emphasize they're not alone and help is available
5. Around 200 words, urgent but very caring tone`,

	models.CrisisPainRelated: `They're in physical pain that's making them have crisis thoughts. Respond with:
1. Acknowledge both their intense physical pain and emotional crisis with deep empathy
2. Recognize how overwhelming pain can make everything feel impossible
3. Crisis resources (988, 741741) for emotional support
4. Suggest getting medical care for physical symptoms
5. Around 200 words, very empathetic and understanding tone`,

	models.CrisisExhaustedOption: `They feel like they've tried everything and nothing works. Respond with:
1. Express deep empathy for their exhaustion and validate their struggle
2. Acknowledge how frustrating it must be when nothing seems to help
3. Crisis resources (988, 741741)
4. Gently remind them there are still people and options that can help
5. Around 200 words, very empathetic and hopeful tone`,

	models.CrisisHopelessness: `They're expressing hopelessness and despair. Respond with:
1. Express deep empathy for their feelings of hopelessness
2. Acknowledge how heavy and dark everything must feel right now
3. Crisis resources (988, 741741)
4. Gentle reminder that feelings can shift and they're not alone
5. Around 200 words, very empathetic and gentle tone`,

	models.CrisisGeneralSuicide: `They're expressing suicidal thoughts. Respond with:
1. Express deep empathy and acknowledge their emotional pain
2. Recognize how brave they are for reaching out when hurting
3. Crisis resources (988, 741741)
4. Emphasize they matter and these feelings can change
5. Around 200 words, very empathetic and caring tone`,
}

var crisisFallbacks = map[models.CrisisType]string{
	models.CrisisViolenceOthers: `I can hear how much you're struggling right now, and I'm so worried about you. These violent thoughts must feel absolutely overwhelming and terrifying to experience. Having these thoughts doesn't make you a bad person. It means you're in crisis and need immediate support.

📞 Please call 988 or text HOME to 741741 right now. They have trained people who understand exactly what you're going through and can help you work through these intense feelings safely.

You were so brave to reach out and share this. That takes incredible courage when you're hurting this deeply. You don't have to carry these heavy, scary thoughts alone anymore. There are people who can help you find relief from this pain. 💙🌸`,

	models.CrisisMethodSeeking: `I can feel how desperate and in pain you must be right now to be asking for this. My heart breaks knowing you're hurting so deeply that you're looking for ways to end that pain. I can't and won't provide what you're asking for, but I'm deeply concerned about you and want to help you find a different path through this darkness.

📞 Please call 988 or text HOME to 741741 right now. They have people who understand this exact kind of pain and desperation, and they can help you find ways to ease this suffering that don't involve hurting yourself.

You reached out, which shows that part of you wants help and wants to live. That's the part I'm talking to right now. These overwhelming feelings that seem permanent can change with the right support. You matter so much more than you realize in this moment. 💙🌸`,

	models.CrisisPainRelated: `I can hear how the physical pain you're experiencing is making everything feel absolutely impossible right now. When you're in that much pain, it can make your whole world feel dark and like there's no way out. The combination of intense physical suffering and emotional crisis must be so overwhelming.

📞 Please call 988 or text HOME to 741741 right now for immediate emotional support.
🏥 Please also get medical care for your physical pain. You deserve relief from both the physical and emotional suffering.

Your pain is real and valid, and I believe you when you say it's unbearable. You don't have to endure this alone. There are people trained to help with both the crisis feelings and the physical pain you're experiencing. You deserve care, comfort, and relief. 💙🌸`,

	models.CrisisExhaustedOption: `I can feel how absolutely exhausted and frustrated you are right now. When you've been trying so hard to cope and nothing seems to work, it can feel like you've reached the end of your rope and there's nowhere left to turn. That feeling of desperation when all your efforts haven't brought relief is so painful and real.

📞 Please call 988 or text HOME to 741741 right now. There are still people and options that can help, even when it feels completely impossible from where you're sitting.

You've been fighting so hard and showing incredible strength just by trying to cope this long. Reaching out shows you haven't completely given up, and that matters so much. You don't have to figure this out alone anymore. Let others help carry this burden with you. 💙🌸`,

	models.CrisisGeneralSuicide: `I hear how much emotional pain you're in right now, and I'm so grateful you trusted me enough to share these feelings. When someone says they want to die, I know they're carrying an enormous amount of suffering that feels unbearable. Your pain is real, and you're incredibly brave for reaching out when you're hurting this deeply.

📞 Please call 988 or text HOME to 741741 right now. They have people who understand exactly this kind of pain and can provide immediate support and care.

Reaching out shows that part of you is looking for help and connection, even in this dark moment. That part of you is hope, even if it doesn't feel like it right now. These intense feelings that seem permanent can change with the right support. You matter deeply, and your life has value even when it doesn't feel that way. 💙🌸`,
}

// Respond builds a crisis response for the given subtype. The result always
// contains both the 988 and 741741 resources, whatever path produced it.
func (s *CrisisService) Respond(ctx context.Context, text string, subtype models.CrisisType) string {
	if s.ai != nil {
		if reply, err := s.personalize(ctx, text, subtype); err == nil {
			return ensureHotlines(reply)
		} else {
			s.logger.Event("errors", fmt.Sprintf("crisis personalization failed: %v", err))
		}
	}
	return fallbackCrisisResponse(subtype)
}

func (s *CrisisService) personalize(ctx context.Context, text string, subtype models.CrisisType) (string, error) {
	guidance, ok := crisisGuidance[subtype]
	if !ok {
		guidance = crisisGuidance[models.CrisisGeneralSuicide]
	}
	prompt := fmt.Sprintf("User said: %q\n\n%s", text, guidance)
	return s.ai.Complete(ctx, crisisSystemPrompt, prompt, 0.7, 300)
}

func fallbackCrisisResponse(subtype models.CrisisType) string {
	if response, ok := crisisFallbacks[subtype]; ok {
		return response
	}
	return crisisFallbacks[models.CrisisGeneralSuicide]
}

// ensureHotlines appends the hotline line when a generated response is
// missing either number. A crisis response without both resources must
// never reach the user.
func ensureHotlines(response string) string {
	if strings.Contains(response, "988") && strings.Contains(response, "741741") {
		return response
	}
	return response + hotlineLine
}
