// Extraction prompts for each question type.

package vision

import "github.com/promer94/image2questions/questions"

const multipleChoicePrompt = `你是一个专业的题目识别助手。请仔细分析图片中的选择题，识别出所有题目及其选项。

要求：
1. 识别图片中所有的选择题
2. 提取每道题的题目内容（title）和四个选项（a、b、c、d）
3. 如果某个选项不存在，对应的值设为空字符串
4. 请按照图片中题目出现的顺序提取
5. 不要提取题目的序号，只提取题目内容本身
`

const trueFalsePrompt = `你是一个专业的题目识别助手。请仔细分析图片中的判断题，识别出所有题目。

要求：
1. 识别图片中所有的判断题
2. 提取每道判断题的题目内容（title）
3. 判断题通常是一个陈述句，需要判断其正确或错误
4. 请按照图片中题目出现的顺序提取
5. 不要提取题目的序号，只提取题目内容本身
`

const mixedPrompt = `你是一个专业的题目识别助手。请仔细分析图片中的所有题目，包括选择题和判断题。

要求：
1. 识别图片中所有的选择题和判断题
2. 对于选择题：提取题目内容（title）和四个选项（a、b、c、d），如果某个选项不存在，对应的值设为空字符串
3. 对于判断题：只提取题目内容（title），判断题通常是一个陈述句，需要判断其正确或错误
4. 请按照图片中题目出现的顺序提取
5. 不要提取题目的序号，只提取题目内容本身
6. 正确区分选择题和判断题：选择题有A、B、C、D等选项，判断题没有选项
`

const (
	multipleChoiceUserText = "请识别以下图片中的所有选择题。"
	trueFalseUserText      = "请识别以下图片中的所有判断题。"
	mixedUserText          = "请识别以下图片中的所有题目，包括选择题和判断题。"
)

// promptsFor returns the system prompt and user text for a question type.
func promptsFor(questionType questions.Type) (system, user string) {
	switch questionType {
	case questions.TypeTrueFalse:
		return trueFalsePrompt, trueFalseUserText
	case questions.TypeMixed:
		return mixedPrompt, mixedUserText
	default:
		return multipleChoicePrompt, multipleChoiceUserText
	}
}
