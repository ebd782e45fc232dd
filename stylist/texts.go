package stylist

import "github.com/raushankrgupta/eyewear-stylist/models"

// User-facing copy. The product ships in Persian only.
const (
	AlertMissingSubject   = "لطفا ابتدا تصویر چهره خود را آپلود کنید"
	AlertMissingReference = "لطفا تصویر عینک را نیز آپلود کنید"
	AlertGenerationFailed = "خطا در پردازش تصویر. لطفا دوباره تلاش کنید."

	WelcomeConsultant = "من بر اساس چهره شما این سبک را پیشنهاد دادم. چطور است؟ می‌توانیم رنگ یا مدل را تغییر دهیم."
	WelcomeTryOn      = "عینک انتخابی شما روی صورت قرار گرفت. آیا نیاز به تنظیمات بیشتری دارید؟"

	VisualizePrefix  = "تغییر طرح: "
	VisualizeApplied = "تغییرات اعمال شد. تصویر جدید را مشاهده کنید. آیا این سبک را می‌پسندید؟"
	VisualizeFailed  = "متاسفم، نتوانستم تصویر را ویرایش کنم."
)

// Instructions sent to the image model for the first generation.
const (
	consultantStylePrompt = "Stylish, modern eyeglasses that suit this face shape. Professional and chic."
	tryOnStylePrompt      = "Specific glasses overlay"
)

// WelcomeMessageID is the fixed id of the synthetic first model message.
const WelcomeMessageID = "init"

func welcomeText(mode models.Mode) string {
	if mode == models.ModeTryOn {
		return WelcomeTryOn
	}
	return WelcomeConsultant
}

func stylePrompt(mode models.Mode) string {
	if mode == models.ModeTryOn {
		return tryOnStylePrompt
	}
	return consultantStylePrompt
}
