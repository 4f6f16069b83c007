package flow

// User-facing messages. All backend errors are collapsed into these; raw
// errors never reach the user.
const (
	msgAskTitle = "Ok, vamos abrir um novo chamado em seu nome. Por favor, qual é o *título* do problema?"

	msgAskName = "Não localizei seu número no GLPI. Para prosseguir, por favor, digite seu *nome completo*."

	msgAskDescription = "Entendido. Título: *%s*.\n\nAgora, descreva o problema com detalhes."

	msgAskAttachment = "Descrição recebida. Gostaria de anexar um anexo (imagem, vídeo, documento)? Se sim, *envie o arquivo agora*. Se não, digite `não`."

	msgAttachmentUnclear = "Não entendi. Por favor, envie um anexo ou digite 'não'."

	msgAttachmentReceived = "Anexo recebido! Processando..."

	msgCreatingWithoutAttachment = "Ok, sem anexo. Criando o chamado..."

	msgNameThanks = "Obrigado, %s. O chamado será aberto em seu nome.\n\nAgora, por favor, qual é o *título* do problema?"

	msgAskTicketNumber = "Entendido. Por favor, digite o *número do chamado* que você deseja consultar (apenas os números)."

	msgTicketNumberOnly = "Por favor, envie apenas o número do chamado."

	msgTicketNotFound = "O chamado de número *#%s* não foi encontrado."

	msgOtherOptions = "A função 'Outras Opções' está em desenvolvimento."

	msgSessionError = "Erro de comunicação ao tentar iniciar sessão no GLPI."

	msgCreateError = "Erro de comunicação ao tentar criar o chamado no GLPI."

	msgStatusError = "Ocorreu um erro ao tentar consultar o chamado. Verifique o número e tente novamente."

	msgFlowError = "Ocorreu um erro no fluxo. Por favor, comece de novo."
)
